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

package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/lukasdietrich/briefbote/internal/database"
	"github.com/lukasdietrich/briefbote/internal/models"
)

func TestLedgerTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

type LedgerTestSuite struct {
	suite.Suite

	ctx     context.Context
	conn    database.Conn
	cleanup func()
	now     time.Time

	ledger *Ledger
}

func (s *LedgerTestSuite) SetupTest() {
	conn, cleanup, err := database.OpenInMemory()
	s.Require().NoError(err)

	_, err = conn.ExecContext(context.Background(), insertTenant, 42, "acme", "hash-42", "", true)
	s.Require().NoError(err)

	s.ctx = context.Background()
	s.conn = conn
	s.cleanup = cleanup
	s.now = time.Unix(1600000000, 0)

	s.ledger = NewLedger(conn, database.NewProcessedMessageDao(), database.NewMessageClaimDao())
	s.ledger.now = func() time.Time { return s.now }
}

func (s *LedgerTestSuite) TearDownTest() {
	s.cleanup()
}

func (s *LedgerTestSuite) claim(messageID, owner string, lease time.Duration) error {
	_, err := s.ledger.Claim(s.ctx, messageID, owner, lease)
	return err
}

func (s *LedgerTestSuite) TestClaimExpiry() {
	expiresAt, err := s.ledger.Claim(s.ctx, "m1", "a", time.Minute)
	s.Require().NoError(err)
	s.Assert().Equal(s.now.Add(time.Minute), expiresAt)

	s.now = s.now.Add(10 * time.Second)

	expiresAt, err = s.ledger.Claim(s.ctx, "m1", "b", time.Hour)
	s.Assert().ErrorIs(err, ErrInFlight)
	s.Assert().Equal(time.Unix(1600000060, 0), expiresAt, "expiry of the foreign claim")
}

func (s *LedgerTestSuite) TestSeize() {
	s.Require().NoError(s.claim("m1", "a", time.Hour))
	s.Require().NoError(s.ledger.Seize(s.ctx, "m1", "b", time.Minute))

	claim, err := database.NewMessageClaimDao().FindByID(s.ctx, s.conn, "m1")
	s.Require().NoError(err)
	s.Assert().Equal("b", claim.Owner)
	s.Assert().Equal(int64(1600000060), claim.ExpiresAt)

	// the previous owner cannot release the seized claim
	s.Require().NoError(s.ledger.Release(s.ctx, "m1", "a"))
	s.Assert().ErrorIs(s.claim("m1", "a", time.Minute), ErrInFlight)

	s.Require().NoError(s.ledger.Seize(s.ctx, "m2", "b", time.Minute))
	s.Assert().ErrorIs(s.claim("m2", "a", time.Minute), ErrInFlight)
}

func (s *LedgerTestSuite) TestClaim() {
	s.Require().NoError(s.claim("m1", "a", time.Minute))
	s.Assert().ErrorIs(s.claim("m1", "b", time.Minute), ErrInFlight)

	s.now = s.now.Add(time.Minute)
	s.Assert().NoError(s.claim("m1", "b", time.Minute))
	s.Assert().ErrorIs(s.claim("m1", "a", time.Minute), ErrInFlight)
}

func (s *LedgerTestSuite) TestRelease() {
	s.Require().NoError(s.claim("m1", "a", time.Hour))

	s.Require().NoError(s.ledger.Release(s.ctx, "m1", "b"))
	s.Assert().ErrorIs(s.claim("m1", "b", time.Hour), ErrInFlight)

	s.Require().NoError(s.ledger.Release(s.ctx, "m1", "a"))
	s.Assert().NoError(s.claim("m1", "b", time.Hour))
}

func (s *LedgerTestSuite) TestRecord() {
	s.Require().NoError(s.claim("m1", "a", time.Hour))
	s.Require().NoError(s.ledger.Record(s.ctx, "m1", 42, models.StatusSuccess, nil, "a"))

	processed, err := s.ledger.IsProcessed(s.ctx, "m1")
	s.Require().NoError(err)
	s.Assert().True(processed)

	// the claim is gone with the record
	s.Assert().NoError(s.claim("m1", "b", time.Hour))
}

func (s *LedgerTestSuite) TestRecordReason() {
	s.Require().NoError(s.ledger.Record(s.ctx, "m1", 42, models.StatusFailed, errors.New("boom"), "a"))

	message, err := database.NewProcessedMessageDao().FindByID(s.ctx, s.conn, "m1")
	s.Require().NoError(err)
	s.Assert().Equal(models.StatusFailed, message.Status)
	s.Assert().Equal("boom", message.Reason.String)
	s.Assert().Equal(int64(1600000000), message.ProcessedAt)
}

func (s *LedgerTestSuite) TestRecordConflict() {
	s.Require().NoError(s.ledger.Record(s.ctx, "m1", 42, models.StatusSuccess, nil, "a"))

	err := s.ledger.Record(s.ctx, "m1", 42, models.StatusFailed, errors.New("late"), "b")
	s.Assert().ErrorIs(err, ErrLedgerConflict)

	status, err := s.ledger.Status(s.ctx, 42, "m1")
	s.Require().NoError(err)
	s.Assert().Equal(models.StatusSuccess, status)
}

func (s *LedgerTestSuite) TestStatus() {
	status, err := s.ledger.Status(s.ctx, 42, "m1")
	s.Require().NoError(err)
	s.Assert().Equal(models.StatusPending, status)

	s.Require().NoError(s.ledger.Record(s.ctx, "m1", 42, models.StatusFailed, nil, "a"))

	status, err = s.ledger.Status(s.ctx, 42, "m1")
	s.Require().NoError(err)
	s.Assert().Equal(models.StatusFailed, status)

	status, err = s.ledger.Status(s.ctx, 43, "m1")
	s.Require().NoError(err)
	s.Assert().Equal(models.StatusPending, status)
}
