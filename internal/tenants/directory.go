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

package tenants

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/wire"

	"github.com/lukasdietrich/briefbote/internal/crypto"
	"github.com/lukasdietrich/briefbote/internal/database"
	"github.com/lukasdietrich/briefbote/internal/log"
	"github.com/lukasdietrich/briefbote/internal/models"
)

// WireSet provides the tenant directory.
var WireSet = wire.NewSet(
	NewDirectory,
)

var (
	// ErrTenantNotFound is returned for unknown tenant ids and api credentials.
	ErrTenantNotFound = errors.New("tenants: tenant not found")
	// ErrCredentialDecryption is returned when the stored SMTP password cannot be decrypted.
	ErrCredentialDecryption = errors.New("tenants: could not decrypt smtp credentials")
)

// Directory is the authoritative store of tenant configuration.
type Directory struct {
	conn      database.Conn
	tenantDao database.TenantDao
	secrets   crypto.SecretBox
}

func NewDirectory(conn database.Conn, tenantDao database.TenantDao, secrets crypto.SecretBox) *Directory {
	return &Directory{
		conn:      conn,
		tenantDao: tenantDao,
		secrets:   secrets,
	}
}

// Resolve returns the tenant with the id. Inactive tenants are returned as well, callers must
// check Active themselves.
func (d *Directory) Resolve(ctx context.Context, tenantID int64) (*models.TenantEntity, error) {
	tenant, err := d.tenantDao.FindByID(ctx, d.conn, tenantID)
	if err != nil {
		if database.IsErrNoRows(err) {
			return nil, fmt.Errorf("%w: %d", ErrTenantNotFound, tenantID)
		}

		return nil, err
	}

	return tenant, nil
}

// ResolveByCredential returns the tenant owning the api credential.
func (d *Directory) ResolveByCredential(ctx context.Context, apiKey string) (*models.TenantEntity, error) {
	if apiKey == "" {
		return nil, ErrTenantNotFound
	}

	tenant, err := d.tenantDao.FindByAPIKeyHash(ctx, d.conn, crypto.HashAPIKey(apiKey))
	if err != nil {
		if database.IsErrNoRows(err) {
			return nil, ErrTenantNotFound
		}

		return nil, err
	}

	return tenant, nil
}

// Credentials decrypts the SMTP password of the tenant.
func (d *Directory) Credentials(tenant *models.TenantEntity) (string, error) {
	password, err := d.secrets.Decrypt(tenant.SMTPPassword)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCredentialDecryption, err)
	}

	return password, nil
}

// List returns all tenants.
func (d *Directory) List(ctx context.Context) ([]models.TenantEntity, error) {
	return d.tenantDao.FindAll(ctx, d.conn)
}

// Create stores a new tenant with an encrypted copy of password and a freshly generated api
// credential. The credential is returned once and only its hash is kept.
func (d *Directory) Create(
	ctx context.Context,
	tenant *models.TenantEntity,
	password string,
) (string, error) {
	apiKey, err := crypto.GenerateAPIKey()
	if err != nil {
		return "", err
	}

	encrypted, err := d.secrets.Encrypt(password)
	if err != nil {
		return "", err
	}

	tenant.APIKeyHash = crypto.HashAPIKey(apiKey)
	tenant.SMTPPassword = encrypted
	tenant.CreatedAt = time.Now().Unix()

	if err := d.tenantDao.Insert(ctx, d.conn, tenant); err != nil {
		return "", err
	}

	log.InfoContext(ctx).
		Int64("tenantId", tenant.ID).
		Str("name", tenant.Name).
		Msg("tenant created")

	return apiKey, nil
}

// SetActive enables or disables dispatching for a tenant.
func (d *Directory) SetActive(ctx context.Context, tenantID int64, active bool) error {
	tenant, err := d.Resolve(ctx, tenantID)
	if err != nil {
		return err
	}

	tenant.Active = active

	if err := d.tenantDao.Update(ctx, d.conn, tenant); err != nil {
		return err
	}

	log.InfoContext(ctx).
		Int64("tenantId", tenantID).
		Bool("active", active).
		Msg("tenant updated")

	return nil
}

// Rekey encrypts all stored SMTP passwords with the primary secret key. It runs in a single
// transaction and returns the number of tenants updated.
func (d *Directory) Rekey(ctx context.Context) (int, error) {
	tx, err := d.conn.Begin(ctx)
	if err != nil {
		return 0, err
	}

	defer tx.Rollback()

	tenants, err := d.tenantDao.FindAll(ctx, tx)
	if err != nil {
		return 0, err
	}

	for i := range tenants {
		tenant := &tenants[i]

		encrypted, err := d.secrets.Reencrypt(tenant.SMTPPassword)
		if err != nil {
			return 0, fmt.Errorf("tenant %d: %w", tenant.ID, err)
		}

		tenant.SMTPPassword = encrypted

		if err := d.tenantDao.Update(ctx, tx, tenant); err != nil {
			return 0, err
		}
	}

	return len(tenants), tx.Commit()
}
