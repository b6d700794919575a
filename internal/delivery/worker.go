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
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/lukasdietrich/briefbote/internal/log"
	"github.com/lukasdietrich/briefbote/internal/queue"
)

func init() {
	viper.SetDefault("worker.prefetch", 5)
	viper.SetDefault("worker.fetchbackoff", 5*time.Second)
	viper.SetDefault("worker.sweepinterval", time.Hour)
}

// Handler handles a single delivery.
type Handler interface {
	Dispatch(ctx context.Context, delivery queue.Delivery)
}

type WorkerOptions struct {
	// Prefetch is the maximum number of messages handled at the same time.
	Prefetch int
	// FetchBackoff is the pause after a failed fetch.
	FetchBackoff time.Duration
	// SweepInterval is the interval of removing expired attachments. Zero disables sweeping.
	SweepInterval time.Duration
}

func WorkerOptionsFromViper() WorkerOptions {
	return WorkerOptions{
		Prefetch:      viper.GetInt("worker.prefetch"),
		FetchBackoff:  viper.GetDuration("worker.fetchbackoff"),
		SweepInterval: viper.GetDuration("worker.sweepinterval"),
	}
}

// Worker consumes the queue and hands every delivery to the handler. No more than Prefetch
// deliveries are in flight at any time.
type Worker struct {
	source  queue.Source
	handler Handler
	sweeper *Sweeper
	opts    WorkerOptions
}

func NewWorker(source queue.Source, handler Handler, sweeper *Sweeper, opts WorkerOptions) *Worker {
	if opts.Prefetch < 1 {
		opts.Prefetch = 1
	}

	return &Worker{
		source:  source,
		handler: handler,
		sweeper: sweeper,
		opts:    opts,
	}
}

// Run consumes until ctx is cancelled. Deliveries that have been fetched are handled to the end
// on a context that is not cancelled, Run returns once all of them are done.
func (w *Worker) Run(ctx context.Context) error {
	ctx = log.WithOrigin(ctx, "worker")

	var wg sync.WaitGroup
	defer wg.Wait()

	if w.sweeper != nil && w.opts.SweepInterval > 0 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			w.sweepPeriodically(ctx)
		}()
	}

	slots := make(chan struct{}, w.opts.Prefetch)
	handlerCtx := context.WithoutCancel(ctx)

	log.InfoContext(ctx).
		Int("prefetch", w.opts.Prefetch).
		Msg("worker started")

	for {
		free, ok := w.acquire(ctx, slots)
		if !ok {
			break
		}

		deliveries, err := w.source.Fetch(ctx, free)
		if err != nil {
			release(slots, free)

			if ctx.Err() != nil {
				break
			}

			log.WarnContext(ctx).
				Err(err).
				Dur("backoff", w.opts.FetchBackoff).
				Msg("could not fetch messages")

			if !sleep(ctx, w.opts.FetchBackoff) {
				break
			}

			continue
		}

		release(slots, free-len(deliveries))

		for _, delivery := range deliveries {
			wg.Add(1)

			go func() {
				defer wg.Done()
				defer release(slots, 1)

				w.dispatch(handlerCtx, delivery)
			}()
		}
	}

	log.InfoContext(ctx).Msg("worker stopping, waiting for in-flight messages")
	return nil
}

// acquire blocks until at least one slot is free and then takes all free slots.
func (w *Worker) acquire(ctx context.Context, slots chan struct{}) (int, bool) {
	select {
	case slots <- struct{}{}:
	case <-ctx.Done():
		return 0, false
	}

	free := 1

	for free < cap(slots) {
		select {
		case slots <- struct{}{}:
			free++
		default:
			return free, true
		}
	}

	return free, true
}

func release(slots chan struct{}, n int) {
	for i := 0; i < n; i++ {
		<-slots
	}
}

// dispatch shields the consumption loop from panics of a single message. The delivery is left
// unacknowledged and will be redelivered by the broker.
func (w *Worker) dispatch(ctx context.Context, delivery queue.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx).
				Interface("panic", r).
				Msg("recovered from panic while handling message")
		}
	}()

	w.handler.Dispatch(ctx, delivery)
}

func (w *Worker) sweepPeriodically(ctx context.Context) {
	ticker := time.NewTicker(w.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.sweeper.Sweep(ctx); err != nil && ctx.Err() == nil {
				log.WarnContext(ctx).Err(err).Msg("could not sweep attachments")
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
