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
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lukasdietrich/briefbote/internal/models"
)

func TestTenantDaoTestSuite(t *testing.T) {
	suite.Run(t, new(TenantDaoTestSuite))
}

type TenantDaoTestSuite struct {
	baseDatabaseTestSuite

	tenantDao TenantDao
}

func (s *TenantDaoTestSuite) SetupSuite() {
	s.tenantDao = NewTenantDao()
}

func (s *TenantDaoTestSuite) TestInsert() {
	tenant := newTenant("acme")

	s.Require().NoError(s.tenantDao.Insert(s.ctx, s.conn, tenant))
	s.Assert().NotZero(tenant.ID)

	s.assertQuery(
		`
			select "name", "api_key_hash", "mail_from", "smtp_host", "smtp_port"
			from "tenants" ;
		`,
		[]string{"acme", "hash-acme", "noreply@acme.example", "smtp.acme.example", "587"})
}

func (s *TenantDaoTestSuite) TestInsertDuplicateAPIKey() {
	s.Require().NoError(s.tenantDao.Insert(s.ctx, s.conn, newTenant("acme")))

	err := s.tenantDao.Insert(s.ctx, s.conn, newTenant("acme"))
	s.Assert().True(IsErrUnique(err))
}

func (s *TenantDaoTestSuite) TestUpdate() {
	s.requireExec(insertTenant42)

	tenant, err := s.tenantDao.FindByID(s.ctx, s.conn, 42)
	s.Require().NoError(err)

	tenant.Active = false
	tenant.SMTPPassword = "rotated"
	s.Require().NoError(s.tenantDao.Update(s.ctx, s.conn, tenant))

	updated, err := s.tenantDao.FindByID(s.ctx, s.conn, 42)
	s.Require().NoError(err)
	s.Assert().False(updated.Active)
	s.Assert().Equal("rotated", updated.SMTPPassword)
}

func (s *TenantDaoTestSuite) TestUpdateMissing() {
	tenant := newTenant("ghost")
	tenant.ID = 1337

	s.Assert().True(IsErrNoRows(s.tenantDao.Update(s.ctx, s.conn, tenant)))
}

func (s *TenantDaoTestSuite) TestFindByID() {
	s.requireExec(insertTenant42)

	tenant, err := s.tenantDao.FindByID(s.ctx, s.conn, 42)
	s.Require().NoError(err)

	s.Assert().EqualValues(42, tenant.ID)
	s.Assert().Equal("Acme", tenant.Name)
	s.Assert().Equal("noreply@acme.example", tenant.MailFrom.String())
	s.Assert().Equal(587, tenant.SMTPPort)
	s.Assert().True(tenant.StartTLS)
	s.Assert().False(tenant.ImplicitTLS)
	s.Assert().True(tenant.UseCredentials)
	s.Assert().True(tenant.ValidateCerts)
	s.Assert().True(tenant.Active)
}

func (s *TenantDaoTestSuite) TestFindByIDMissing() {
	_, err := s.tenantDao.FindByID(s.ctx, s.conn, 7)
	s.Assert().True(IsErrNoRows(err))
}

func (s *TenantDaoTestSuite) TestFindByAPIKeyHash() {
	s.requireExec(insertTenant42)

	tenant, err := s.tenantDao.FindByAPIKeyHash(s.ctx, s.conn, "hash-42")
	s.Require().NoError(err)
	s.Assert().EqualValues(42, tenant.ID)

	_, err = s.tenantDao.FindByAPIKeyHash(s.ctx, s.conn, "hash-43")
	s.Assert().True(IsErrNoRows(err))
}

func (s *TenantDaoTestSuite) TestFindAll() {
	for _, name := range []string{"b", "a"} {
		s.Require().NoError(s.tenantDao.Insert(s.ctx, s.conn, newTenant(name)))
	}

	tenants, err := s.tenantDao.FindAll(s.ctx, s.conn)
	s.Require().NoError(err)
	s.Require().Len(tenants, 2)
	s.Assert().Equal("b", tenants[0].Name)
	s.Assert().Equal("a", tenants[1].Name)
}

func (s *TenantDaoTestSuite) TestFindAllEmpty() {
	tenants, err := s.tenantDao.FindAll(s.ctx, s.conn)
	s.Assert().NoError(err)
	s.Assert().Empty(tenants)
	s.Assert().IsType([]models.TenantEntity(nil), tenants)
}
