// Copyright (C) 2026  Lukas Dietrich <lukas@lukasdietrich.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"path"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/viper"

	// registers the "pgx" driver
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/lukasdietrich/briefbote/internal/log"
)

const (
	DriverSqlite   = "sqlite3"
	DriverPostgres = "pgx"

	migrationTable = "migrations"
)

//go:embed migrations/*
var migrationFolder embed.FS

func init() {
	viper.SetDefault("storage.database.driver", DriverSqlite)
	viper.SetDefault("storage.database.filename", "data/briefbote.sqlite")
	viper.SetDefault("storage.database.journalmode", "wal")
	viper.SetDefault("storage.database.busytimeout", 5000)
	viper.SetDefault("storage.database.dsn", "")

	migrate.SetTable(migrationTable)
}

// Queryer is implemented by both Conn and Tx.
type Queryer interface {
	sqlx.ExtContext
}

type Tx interface {
	Queryer
	Commit() error
	Rollback() error
	RollbackWith(func()) error
}

type tx struct {
	*sqlx.Tx
}

// RollbackWith rolls the transaction back and invokes callback, unless the transaction was
// already committed.
func (t tx) RollbackWith(callback func()) error {
	err := t.Rollback()

	if !errors.Is(err, sql.ErrTxDone) {
		callback()
	}

	return err
}

type Conn interface {
	Queryer
	Begin(context.Context) (Tx, error)
	Close() error
}

type conn struct {
	*sqlx.DB
}

func (c conn) Begin(ctx context.Context) (Tx, error) {
	rawTx, err := c.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	return tx{rawTx}, nil
}

type ConnOptions struct {
	Driver      string
	Filename    string
	JournalMode string
	BusyTimeout int
	// DSN is only used for postgres.
	DSN string
}

func ConnOptionsFromViper() ConnOptions {
	return ConnOptions{
		Driver:      viper.GetString("storage.database.driver"),
		Filename:    viper.GetString("storage.database.filename"),
		JournalMode: viper.GetString("storage.database.journalmode"),
		BusyTimeout: viper.GetInt("storage.database.busytimeout"),
		DSN:         viper.GetString("storage.database.dsn"),
	}
}

// OpenConnection connects to the configured database and applies all pending migrations.
func OpenConnection(opts ConnOptions) (Conn, func(), error) {
	dsn, dialect, err := createDataSourceName(opts)
	if err != nil {
		return nil, nil, err
	}

	event := log.Info().Str("driver", opts.Driver)
	if opts.Driver == DriverSqlite {
		sqliteVersion, _, _ := sqlite3.Version()
		event.Str("version", sqliteVersion).Str("dataSourceName", dsn)
	}
	event.Msg("connecting to database")

	db, err := sqlx.Open(opts.Driver, dsn)
	if err != nil {
		return nil, nil, err
	}

	if opts.Driver == DriverSqlite && opts.Filename == ":memory:" {
		// every connection would see its own empty database otherwise
		db.SetMaxOpenConns(1)
	}

	if err := migrateUp(db, dialect); err != nil {
		db.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("could not close database")
		}
	}

	return conn{db}, cleanup, nil
}

func createDataSourceName(opts ConnOptions) (dsn string, dialect string, err error) {
	switch opts.Driver {
	case DriverSqlite:
		query := make(url.Values)
		query.Add("_foreign_keys", "true")
		query.Add("_journal_mode", opts.JournalMode)
		query.Add("_busy_timeout", fmt.Sprint(opts.BusyTimeout))
		query.Add("_txlock", "immediate")

		u := url.URL{
			Scheme:   "file",
			Opaque:   opts.Filename,
			RawQuery: query.Encode(),
		}

		return u.String(), "sqlite3", nil

	case DriverPostgres:
		if opts.DSN == "" {
			return "", "", errors.New("database: postgres requires a dsn")
		}

		return opts.DSN, "postgres", nil

	default:
		return "", "", fmt.Errorf("database: unsupported driver %q", opts.Driver)
	}
}

func migrateUp(db *sqlx.DB, dialect string) error {
	source := migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFolder,
		Root:       path.Join("migrations", dialect),
	}

	n, err := migrate.Exec(db.DB, dialect, source, migrate.Up)
	if err != nil {
		return fmt.Errorf("database: could not apply migrations: %w", err)
	}

	log.Info().Int("count", n).Str("dialect", dialect).Msg("applied migrations")
	return nil
}
