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

// MessageClaimDao accesses the leases workers hold on messages in flight.
type MessageClaimDao interface {
	// Insert inserts a new claim. It fails with a unique constraint violation if any claim for the
	// message exists.
	Insert(context.Context, Queryer, *models.MessageClaimEntity) error
	// TakeOver replaces an existing claim, if it is expired or already owned by the same owner.
	// It returns sql.ErrNoRows otherwise.
	TakeOver(context.Context, Queryer, *models.MessageClaimEntity) error
	// Replace overwrites an existing claim regardless of its owner and expiry. It returns
	// sql.ErrNoRows if no claim exists.
	Replace(context.Context, Queryer, *models.MessageClaimEntity) error
	// FindByID returns the claim of the message or sql.ErrNoRows.
	FindByID(context.Context, Queryer, string) (*models.MessageClaimEntity, error)
	// Delete removes the claim of the owner. Missing claims are ignored.
	Delete(context.Context, Queryer, string, string) error
}

type messageClaimDao struct{}

func NewMessageClaimDao() MessageClaimDao {
	return messageClaimDao{}
}

func (messageClaimDao) Insert(ctx context.Context, q Queryer, claim *models.MessageClaimEntity) error {
	const query = `
		insert into "message_claims" (
			"message_id" ,
			"owner" ,
			"claimed_at" ,
			"expires_at"
		) values (
			:message_id ,
			:owner ,
			:claimed_at ,
			:expires_at
		) ;
	`

	result, err := execNamed(ctx, q, query, claim)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (messageClaimDao) TakeOver(ctx context.Context, q Queryer, claim *models.MessageClaimEntity) error {
	const query = `
		update "message_claims"
		set "owner"      = :owner ,
			"claimed_at" = :claimed_at ,
			"expires_at" = :expires_at
		where "message_id" = :message_id
		  and ( "expires_at" <= :claimed_at or "owner" = :owner ) ;
	`

	result, err := execNamed(ctx, q, query, claim)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (messageClaimDao) Replace(ctx context.Context, q Queryer, claim *models.MessageClaimEntity) error {
	const query = `
		update "message_claims"
		set "owner"      = :owner ,
			"claimed_at" = :claimed_at ,
			"expires_at" = :expires_at
		where "message_id" = :message_id ;
	`

	result, err := execNamed(ctx, q, query, claim)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (messageClaimDao) FindByID(ctx context.Context, q Queryer, messageID string) (*models.MessageClaimEntity, error) {
	const query = `
		select *
		from "message_claims"
		where "message_id" = $1 ;
	`

	var claim models.MessageClaimEntity

	if err := selectOne(ctx, q, &claim, query, messageID); err != nil {
		return nil, err
	}

	return &claim, nil
}

func (messageClaimDao) Delete(ctx context.Context, q Queryer, messageID, owner string) error {
	const query = `
		delete from "message_claims"
		where "message_id" = $1
		  and "owner" = $2 ;
	`

	_, err := execPositional(ctx, q, query, messageID, owner)
	return err
}
