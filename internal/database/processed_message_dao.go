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

// ProcessedMessageDao accesses the processed-message ledger.
type ProcessedMessageDao interface {
	// Insert inserts a ledger row. Inserting a message id twice fails with a unique constraint
	// violation.
	Insert(context.Context, Queryer, *models.ProcessedMessageEntity) error
	// Exists checks if a ledger row exists for the message id.
	Exists(context.Context, Queryer, string) (bool, error)
	// FindByID returns the ledger row of the message id.
	FindByID(context.Context, Queryer, string) (*models.ProcessedMessageEntity, error)
}

type processedMessageDao struct{}

func NewProcessedMessageDao() ProcessedMessageDao {
	return processedMessageDao{}
}

func (processedMessageDao) Insert(
	ctx context.Context,
	q Queryer,
	message *models.ProcessedMessageEntity,
) error {
	const query = `
		insert into "processed_messages" (
			"message_id" ,
			"tenant_id" ,
			"status" ,
			"processed_at" ,
			"reason"
		) values (
			:message_id ,
			:tenant_id ,
			:status ,
			:processed_at ,
			:reason
		) ;
	`

	result, err := execNamed(ctx, q, query, message)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (processedMessageDao) Exists(ctx context.Context, q Queryer, messageID string) (bool, error) {
	const query = `
		select exists (
			select 1
			from "processed_messages"
			where "message_id" = $1
		) ;
	`

	var exists bool
	err := selectOne(ctx, q, &exists, query, messageID)
	return exists, err
}

func (processedMessageDao) FindByID(
	ctx context.Context,
	q Queryer,
	messageID string,
) (*models.ProcessedMessageEntity, error) {
	const query = `
		select *
		from "processed_messages"
		where "message_id" = $1 ;
	`

	var message models.ProcessedMessageEntity

	if err := selectOne(ctx, q, &message, query, messageID); err != nil {
		return nil, err
	}

	return &message, nil
}
