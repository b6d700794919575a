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

package queue

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/viper"

	"github.com/lukasdietrich/briefbote/internal/log"
)

func init() {
	viper.SetDefault("queue.fetchwait", 5*time.Second)
}

// Delivery is a single delivery of a queue message. A message may be delivered more than once.
type Delivery interface {
	// Data is the raw payload.
	Data() []byte
	// Header contains the message headers, including propagated trace headers.
	Header() nats.Header
	// Attempt is the 1-based delivery count of the message.
	Attempt() int
	// Ack removes the message from the queue.
	Ack() error
	// Nak asks the broker to redeliver the message after delay.
	Nak(delay time.Duration) error
	// Term removes the message from the queue without further attempts.
	Term() error
}

// Source hands out deliveries.
type Source interface {
	// Fetch waits for up to n deliveries. It returns an empty slice if none arrived in time.
	Fetch(ctx context.Context, n int) ([]Delivery, error)
}

// Consumer is a durable pull consumer with explicit acknowledgement.
type Consumer struct {
	sub       *nats.Subscription
	fetchWait time.Duration
}

func NewConsumer(conn *Connection) (*Consumer, error) {
	opts := conn.Options

	sub, err := conn.JetStream.PullSubscribe(opts.Subject, opts.Consumer,
		nats.BindStream(opts.Stream),
		nats.ManualAck(),
		nats.AckExplicit(),
		nats.AckWait(opts.AckWait),
		nats.MaxDeliver(opts.MaxDeliver),
		nats.MaxAckPending(opts.MaxAckPending),
		nats.DeliverAll())

	if err != nil {
		return nil, err
	}

	log.Info().
		Str("stream", opts.Stream).
		Str("consumer", opts.Consumer).
		Dur("ackWait", opts.AckWait).
		Int("maxDeliver", opts.MaxDeliver).
		Msg("subscribed to queue")

	return &Consumer{
		sub:       sub,
		fetchWait: viper.GetDuration("queue.fetchwait"),
	}, nil
}

func (c *Consumer) Fetch(ctx context.Context, n int) ([]Delivery, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchWait)
	defer cancel()

	msgs, err := c.sub.Fetch(n, nats.Context(fetchCtx))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, nats.ErrTimeout) {
			return nil, nil
		}

		return nil, err
	}

	deliveries := make([]Delivery, len(msgs))
	for i, msg := range msgs {
		deliveries[i] = natsDelivery{msg: msg}
	}

	return deliveries, nil
}

type natsDelivery struct {
	msg *nats.Msg
}

func (d natsDelivery) Data() []byte {
	return d.msg.Data
}

func (d natsDelivery) Header() nats.Header {
	return d.msg.Header
}

func (d natsDelivery) Attempt() int {
	meta, err := d.msg.Metadata()
	if err != nil {
		return 1
	}

	return int(meta.NumDelivered)
}

func (d natsDelivery) Ack() error {
	return d.msg.AckSync()
}

func (d natsDelivery) Nak(delay time.Duration) error {
	return d.msg.NakWithDelay(delay)
}

func (d natsDelivery) Term() error {
	return d.msg.Term()
}
