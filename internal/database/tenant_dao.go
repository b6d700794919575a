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

	"github.com/lukasdietrich/briefbote/internal/models"
)

// TenantDao is a data access object for all tenant related queries.
type TenantDao interface {
	// Insert inserts a new tenant and sets its id.
	Insert(context.Context, Queryer, *models.TenantEntity) error
	// Update updates an existing tenant.
	Update(context.Context, Queryer, *models.TenantEntity) error
	// FindAll returns all tenants ordered by id.
	FindAll(context.Context, Queryer) ([]models.TenantEntity, error)
	// FindByID returns the tenant with the id.
	FindByID(context.Context, Queryer, int64) (*models.TenantEntity, error)
	// FindByAPIKeyHash returns the tenant owning the api credential digest.
	FindByAPIKeyHash(context.Context, Queryer, string) (*models.TenantEntity, error)
}

type tenantDao struct{}

func NewTenantDao() TenantDao {
	return tenantDao{}
}

func (tenantDao) Insert(ctx context.Context, q Queryer, tenant *models.TenantEntity) error {
	const query = `
		insert into "tenants" (
			"name" ,
			"api_key_hash" ,
			"smtp_username" ,
			"smtp_password" ,
			"mail_from" ,
			"smtp_host" ,
			"smtp_port" ,
			"smtp_starttls" ,
			"smtp_ssl_tls" ,
			"use_credentials" ,
			"validate_certs" ,
			"active" ,
			"created_at"
		) values (
			:name ,
			:api_key_hash ,
			:smtp_username ,
			:smtp_password ,
			:mail_from ,
			:smtp_host ,
			:smtp_port ,
			:smtp_starttls ,
			:smtp_ssl_tls ,
			:use_credentials ,
			:validate_certs ,
			:active ,
			:created_at
		) returning "id" ;
	`

	id, err := insertNamedReturningID(ctx, q, query, tenant)
	if err != nil {
		return err
	}

	tenant.ID = id
	return nil
}

func (tenantDao) Update(ctx context.Context, q Queryer, tenant *models.TenantEntity) error {
	const query = `
		update "tenants"
		set "name"            = :name ,
			"api_key_hash"    = :api_key_hash ,
			"smtp_username"   = :smtp_username ,
			"smtp_password"   = :smtp_password ,
			"mail_from"       = :mail_from ,
			"smtp_host"       = :smtp_host ,
			"smtp_port"       = :smtp_port ,
			"smtp_starttls"   = :smtp_starttls ,
			"smtp_ssl_tls"    = :smtp_ssl_tls ,
			"use_credentials" = :use_credentials ,
			"validate_certs"  = :validate_certs ,
			"active"          = :active
		where "id" = :id ;
	`

	result, err := execNamed(ctx, q, query, tenant)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (tenantDao) FindAll(ctx context.Context, q Queryer) ([]models.TenantEntity, error) {
	const query = `
		select *
		from "tenants"
		order by "id" asc ;
	`

	var tenantSlice []models.TenantEntity

	if err := selectSlice(ctx, q, &tenantSlice, query); err != nil {
		return nil, err
	}

	return tenantSlice, nil
}

func (tenantDao) FindByID(ctx context.Context, q Queryer, id int64) (*models.TenantEntity, error) {
	const query = `
		select *
		from "tenants"
		where "id" = $1 ;
	`

	var tenant models.TenantEntity

	if err := selectOne(ctx, q, &tenant, query, id); err != nil {
		return nil, err
	}

	return &tenant, nil
}

func (tenantDao) FindByAPIKeyHash(
	ctx context.Context,
	q Queryer,
	hash string,
) (*models.TenantEntity, error) {
	const query = `
		select *
		from "tenants"
		where "api_key_hash" = $1 ;
	`

	var tenant models.TenantEntity

	if err := selectOne(ctx, q, &tenant, query, hash); err != nil {
		return nil, err
	}

	return &tenant, nil
}
