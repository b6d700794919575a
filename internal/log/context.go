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

package log

import (
	"context"

	"github.com/rs/zerolog"
)

type fieldOrigin struct{}
type fieldWorker struct{}
type fieldMessage struct{}
type fieldTenant struct{}

// WithOrigin names the process role (api, worker, shell, sweep).
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, fieldOrigin{}, origin)
}

func WithWorker(ctx context.Context, worker string) context.Context {
	return context.WithValue(ctx, fieldWorker{}, worker)
}

func WithMessage(ctx context.Context, messageID string) context.Context {
	return context.WithValue(ctx, fieldMessage{}, messageID)
}

func WithTenant(ctx context.Context, tenantID int64) context.Context {
	return context.WithValue(ctx, fieldTenant{}, tenantID)
}

func appendContextFields(ctx context.Context, event *zerolog.Event) *zerolog.Event {
	if origin, ok := ctx.Value(fieldOrigin{}).(string); ok {
		event.Str("origin", origin)
	}

	if worker, ok := ctx.Value(fieldWorker{}).(string); ok {
		event.Str("worker", worker)
	}

	if message, ok := ctx.Value(fieldMessage{}).(string); ok {
		event.Str("messageId", message)
	}

	if tenant, ok := ctx.Value(fieldTenant{}).(int64); ok {
		event.Int64("tenantId", tenant)
	}

	return event
}
