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
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukasdietrich/briefbote/internal/models"
)

func TestConnOptionsFromViper(t *testing.T) {
	viper.Set("storage.database.driver", "pgx")
	viper.Set("storage.database.dsn", "postgres://localhost/briefbote")
	defer viper.Set("storage.database.driver", DriverSqlite)

	opts := ConnOptionsFromViper()
	assert.Equal(t, "pgx", opts.Driver)
	assert.Equal(t, "postgres://localhost/briefbote", opts.DSN)
}

func TestCreateDataSourceNameSqlite(t *testing.T) {
	dsn, dialect, err := createDataSourceName(ConnOptions{
		Driver:      DriverSqlite,
		Filename:    "somewhere/file.db",
		JournalMode: "off",
		BusyTimeout: 100,
	})

	require.NoError(t, err)
	assert.Equal(t, "sqlite3", dialect)
	assert.Equal(t,
		"file:somewhere/file.db?_busy_timeout=100&_foreign_keys=true&_journal_mode=off&_txlock=immediate",
		dsn)
}

func TestCreateDataSourceNamePostgres(t *testing.T) {
	dsn, dialect, err := createDataSourceName(ConnOptions{
		Driver: DriverPostgres,
		DSN:    "postgres://user@localhost/briefbote",
	})

	require.NoError(t, err)
	assert.Equal(t, "postgres", dialect)
	assert.Equal(t, "postgres://user@localhost/briefbote", dsn)

	_, _, err = createDataSourceName(ConnOptions{Driver: DriverPostgres})
	assert.Error(t, err)
}

func TestCreateDataSourceNameUnknownDriver(t *testing.T) {
	_, _, err := createDataSourceName(ConnOptions{Driver: "mysql"})
	assert.Error(t, err)
}

func TestOpenConnection(t *testing.T) {
	conn, cleanup, err := OpenInMemory()
	require.NoError(t, err)
	require.NotNil(t, conn)

	rows, err := conn.QueryContext(context.Background(), "select 0 where 0 ;")
	require.NoError(t, err)
	require.NotNil(t, rows)

	assert.NoError(t, rows.Close())
	cleanup()
}

func TestBeginCommit(t *testing.T) {
	conn, cleanup, err := OpenInMemory()
	require.NoError(t, err)

	defer cleanup()

	var (
		ctx       = context.Background()
		tenantDao = NewTenantDao()
	)

	tx, err := conn.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, tenantDao.Insert(ctx, tx, newTenant("commit")))
	tenants, err := tenantDao.FindAll(ctx, tx)
	require.NoError(t, err)
	require.Len(t, tenants, 1)

	require.NoError(t, tx.Commit())

	tenants, err = tenantDao.FindAll(ctx, conn)
	require.NoError(t, err)
	require.Len(t, tenants, 1)
}

func TestBeginRollbackWith(t *testing.T) {
	conn, cleanup, err := OpenInMemory()
	require.NoError(t, err)

	defer cleanup()

	var (
		ctx             = context.Background()
		tenantDao       = NewTenantDao()
		callbackInvoked = false
	)

	tx, err := conn.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, tenantDao.Insert(ctx, tx, newTenant("rollback")))

	require.NoError(t, tx.RollbackWith(func() {
		callbackInvoked = true
	}))

	tenants, err := tenantDao.FindAll(ctx, conn)
	require.NoError(t, err)
	require.Len(t, tenants, 0)

	assert.True(t, callbackInvoked)
}

func TestRollbackWithAfterCommit(t *testing.T) {
	conn, cleanup, err := OpenInMemory()
	require.NoError(t, err)

	defer cleanup()

	tx, err := conn.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	callbackInvoked := false
	assert.Error(t, tx.RollbackWith(func() {
		callbackInvoked = true
	}))
	assert.False(t, callbackInvoked)
}

func newTenant(name string) *models.TenantEntity {
	from, _ := models.Parse("noreply@" + name + ".example")

	return &models.TenantEntity{
		Name:           name,
		APIKeyHash:     "hash-" + name,
		SMTPUsername:   "user",
		SMTPPassword:   "token",
		MailFrom:       from,
		SMTPHost:       "smtp." + name + ".example",
		SMTPPort:       587,
		StartTLS:       true,
		UseCredentials: true,
		ValidateCerts:  true,
		Active:         true,
		CreatedAt:      1600000000,
	}
}
