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
	"database/sql"
	"time"

	"github.com/lukasdietrich/briefbote/internal/database"
	"github.com/lukasdietrich/briefbote/internal/models"
)

// Ledger is the processed-message ledger. A message id is recorded at most once, enforced by the
// primary key of the ledger table. Claims keep two workers from sending the same message at the
// same time and expire after a lease, so a crashed worker does not block a message forever.
type Ledger struct {
	conn       database.Conn
	messageDao database.ProcessedMessageDao
	claimDao   database.MessageClaimDao
	now        func() time.Time
}

func NewLedger(
	conn database.Conn,
	messageDao database.ProcessedMessageDao,
	claimDao database.MessageClaimDao,
) *Ledger {
	return &Ledger{
		conn:       conn,
		messageDao: messageDao,
		claimDao:   claimDao,
		now:        time.Now,
	}
}

// IsProcessed checks if a ledger row exists for the message. It is only a fast path, Record is
// the authoritative check.
func (l *Ledger) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	return l.messageDao.Exists(ctx, l.conn, messageID)
}

// Claim marks the message as being worked on by owner until the lease runs out and returns the
// expiry of the claim in effect. ErrInFlight is returned together with the expiry of the foreign
// claim, if another owner holds a claim that has not expired.
func (l *Ledger) Claim(ctx context.Context, messageID, owner string, lease time.Duration) (time.Time, error) {
	claim := l.newClaim(messageID, owner, lease)
	expiresAt := time.Unix(claim.ExpiresAt, 0)

	err := l.claimDao.Insert(ctx, l.conn, &claim)
	if err == nil {
		return expiresAt, nil
	}

	if !database.IsErrUnique(err) {
		return time.Time{}, err
	}

	err = l.claimDao.TakeOver(ctx, l.conn, &claim)
	if err == nil {
		return expiresAt, nil
	}

	if !database.IsErrNoRows(err) {
		return time.Time{}, err
	}

	held, err := l.claimDao.FindByID(ctx, l.conn, messageID)
	if err != nil {
		if database.IsErrNoRows(err) {
			// Released in the meantime. The next delivery will claim it.
			return time.Time{}, ErrInFlight
		}

		return time.Time{}, err
	}

	return time.Unix(held.ExpiresAt, 0), ErrInFlight
}

// Seize claims the message for owner even if another owner holds a live claim.
func (l *Ledger) Seize(ctx context.Context, messageID, owner string, lease time.Duration) error {
	claim := l.newClaim(messageID, owner, lease)

	err := l.claimDao.Replace(ctx, l.conn, &claim)
	if database.IsErrNoRows(err) {
		err = l.claimDao.Insert(ctx, l.conn, &claim)
	}

	return err
}

func (l *Ledger) newClaim(messageID, owner string, lease time.Duration) models.MessageClaimEntity {
	now := l.now()

	return models.MessageClaimEntity{
		MessageID: messageID,
		Owner:     owner,
		ClaimedAt: now.Unix(),
		ExpiresAt: now.Add(lease).Unix(),
	}
}

// Release drops the claim of owner, so that a redelivery can be picked up right away.
func (l *Ledger) Release(ctx context.Context, messageID, owner string) error {
	return l.claimDao.Delete(ctx, l.conn, messageID, owner)
}

// Record inserts the ledger row and drops the claim of owner in one transaction. If the message
// has been recorded before, ErrLedgerConflict is returned and nothing is changed.
func (l *Ledger) Record(
	ctx context.Context,
	messageID string,
	tenantID int64,
	status models.MessageStatus,
	reason error,
	owner string,
) error {
	tx, err := l.conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	message := models.ProcessedMessageEntity{
		MessageID:   messageID,
		TenantID:    tenantID,
		Status:      status,
		ProcessedAt: l.now().Unix(),
	}

	if reason != nil {
		message.Reason = sql.NullString{String: reason.Error(), Valid: true}
	}

	if err := l.messageDao.Insert(ctx, tx, &message); err != nil {
		if database.IsErrUnique(err) {
			return ErrLedgerConflict
		}

		return err
	}

	if err := l.claimDao.Delete(ctx, tx, messageID, owner); err != nil {
		return err
	}

	return tx.Commit()
}

// Status returns the processing status of a message as seen by the tenant. Messages without a
// ledger row, including messages of other tenants, are pending.
func (l *Ledger) Status(ctx context.Context, tenantID int64, messageID string) (models.MessageStatus, error) {
	message, err := l.messageDao.FindByID(ctx, l.conn, messageID)
	if err != nil {
		if database.IsErrNoRows(err) {
			return models.StatusPending, nil
		}

		return "", err
	}

	if message.TenantID != tenantID {
		return models.StatusPending, nil
	}

	return message.Status, nil
}
