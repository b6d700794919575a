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
	"errors"
	"fmt"
	"time"

	"github.com/google/wire"
	"github.com/nats-io/nats.go"
	"github.com/spf13/viper"

	"github.com/lukasdietrich/briefbote/internal/log"
)

// WireSet provides the broker connection, the producer and the consumer.
var WireSet = wire.NewSet(
	OptionsFromViper,
	Connect,
	NewProducer,
	NewConsumer,
)

func init() {
	viper.SetDefault("queue.url", nats.DefaultURL)
	viper.SetDefault("queue.stream", "EMAILS")
	viper.SetDefault("queue.subject", "EMAILS.send")
	viper.SetDefault("queue.consumer", "EMAIL_WORKER")
	viper.SetDefault("queue.ackwait", 5*time.Minute)
	viper.SetDefault("queue.maxdeliver", 5)
	viper.SetDefault("queue.maxackpending", 1000)
	viper.SetDefault("queue.duplicates", 2*time.Minute)
	viper.SetDefault("queue.connect.retries", 5)
	viper.SetDefault("queue.connect.delay", 5*time.Second)
}

type Options struct {
	URL      string
	Stream   string
	Subject  string
	Consumer string
	// AckWait is the time after which an unacknowledged message is redelivered.
	AckWait time.Duration
	// MaxDeliver is the number of delivery attempts per message.
	MaxDeliver    int
	MaxAckPending int
	// Duplicates is the window in which publishes with the same message id are dropped.
	Duplicates     time.Duration
	ConnectRetries int
	ConnectDelay   time.Duration
}

func OptionsFromViper() Options {
	return Options{
		URL:            viper.GetString("queue.url"),
		Stream:         viper.GetString("queue.stream"),
		Subject:        viper.GetString("queue.subject"),
		Consumer:       viper.GetString("queue.consumer"),
		AckWait:        viper.GetDuration("queue.ackwait"),
		MaxDeliver:     viper.GetInt("queue.maxdeliver"),
		MaxAckPending:  viper.GetInt("queue.maxackpending"),
		Duplicates:     viper.GetDuration("queue.duplicates"),
		ConnectRetries: viper.GetInt("queue.connect.retries"),
		ConnectDelay:   viper.GetDuration("queue.connect.delay"),
	}
}

// Connection is a broker connection scoped to the lifetime of a command.
type Connection struct {
	Options   Options
	Conn      *nats.Conn
	JetStream nats.JetStreamContext
}

// Connect connects to the broker and makes sure the durable stream exists.
func Connect(opts Options) (*Connection, func(), error) {
	nc, err := connectWithRetries(opts)
	if err != nil {
		return nil, nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, nil, err
	}

	if err := ensureStream(js, opts); err != nil {
		nc.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := nc.Drain(); err != nil {
			log.Warn().Err(err).Msg("could not drain broker connection")
		}
	}

	return &Connection{Options: opts, Conn: nc, JetStream: js}, cleanup, nil
}

func connectWithRetries(opts Options) (*nats.Conn, error) {
	attempts := opts.ConnectRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		nc, err := nats.Connect(opts.URL,
			nats.Name("briefbote"),
			nats.MaxReconnects(-1),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Warn().Err(err).Msg("disconnected from broker")
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				log.Info().Str("url", nc.ConnectedUrl()).Msg("reconnected to broker")
			}))

		if err == nil {
			log.Info().
				Str("url", nc.ConnectedUrl()).
				Msg("connected to broker")

			return nc, nil
		}

		lastErr = err

		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("attempts", attempts).
			Msg("could not connect to broker")

		if attempt < attempts {
			time.Sleep(opts.ConnectDelay)
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrQueueUnavailable, lastErr)
}

func ensureStream(js nats.JetStreamContext, opts Options) error {
	_, err := js.StreamInfo(opts.Stream)
	if err == nil {
		return nil
	}

	if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:       opts.Stream,
		Subjects:   []string{opts.Subject},
		Storage:    nats.FileStorage,
		Retention:  nats.WorkQueuePolicy,
		Duplicates: opts.Duplicates,
	})

	if err == nil {
		log.Info().Str("stream", opts.Stream).Msg("created stream")
	}

	return err
}
