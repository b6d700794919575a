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
	"time"

	"github.com/lukasdietrich/briefbote/internal/log"
	"github.com/lukasdietrich/briefbote/internal/metrics"
	"github.com/lukasdietrich/briefbote/internal/storage"
)

// Sweeper removes attachment files that outlived the maximum age. These are uploads that were
// never referenced by a job, or files left behind by a crashed worker.
type Sweeper struct {
	attachments storage.Attachments
	pins        *Pins
	maxAge      time.Duration
	now         func() time.Time
}

func NewSweeper(attachments storage.Attachments, pins *Pins, opts storage.AttachmentsOptions) *Sweeper {
	return &Sweeper{
		attachments: attachments,
		pins:        pins,
		maxAge:      opts.MaxAge,
		now:         time.Now,
	}
}

// Sweep removes all expired files not pinned by an in-flight message and returns their number.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	expired, err := s.attachments.Expired(ctx, s.now().Add(-s.maxAge))
	if err != nil {
		return 0, err
	}

	var deleted int

	for _, desc := range expired {
		if s.pins.Pinned(desc.Path) {
			continue
		}

		if err := s.attachments.Delete(ctx, desc); err != nil {
			log.WarnContext(ctx).
				Err(err).
				Str("path", desc.Path).
				Msg("could not remove expired attachment")

			continue
		}

		deleted++
	}

	metrics.IncAttachmentsDeleted("expired", deleted)

	log.InfoContext(ctx).
		Int("expired", len(expired)).
		Int("deleted", deleted).
		Msg("swept attachments")

	return deleted, nil
}
