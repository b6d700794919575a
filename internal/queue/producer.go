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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/nats-io/nats.go"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/lukasdietrich/briefbote/internal/crypto"
	"github.com/lukasdietrich/briefbote/internal/log"
	"github.com/lukasdietrich/briefbote/internal/metrics"
	"github.com/lukasdietrich/briefbote/internal/models"
)

// ErrQueueUnavailable is returned when a job could not be handed to the broker. The caller must
// not report such a job as queued.
var ErrQueueUnavailable = errors.New("queue: unavailable")

// Publisher is the part of nats.JetStreamContext used to publish jobs.
type Publisher interface {
	PublishMsg(*nats.Msg, ...nats.PubOpt) (*nats.PubAck, error)
}

// Producer encodes email jobs and publishes them to the durable queue. It touches neither the
// database nor the attachment store.
type Producer struct {
	publisher Publisher
	subject   string
	idGen     crypto.IDGenerator
}

func NewProducer(conn *Connection, idGen crypto.IDGenerator) *Producer {
	return newProducer(conn.JetStream, conn.Options.Subject, idGen)
}

func newProducer(publisher Publisher, subject string, idGen crypto.IDGenerator) *Producer {
	return &Producer{
		publisher: publisher,
		subject:   subject,
		idGen:     idGen,
	}
}

// Enqueue assigns a new message id to the email and publishes it. It returns once the broker has
// persisted the message.
func (p *Producer) Enqueue(ctx context.Context, tenantID int64, email models.Email) (string, error) {
	messageID, err := p.idGen.GenerateID()
	if err != nil {
		return "", err
	}

	job := models.EmailJob{
		MessageID: messageID,
		TenantID:  tenantID,
		Email:     email,
	}

	if err := job.Validate(); err != nil {
		metrics.IncEnqueued("invalid")
		return "", err
	}

	data, err := json.Marshal(&job)
	if err != nil {
		return "", err
	}

	span, ctx := tracer.StartSpanFromContext(ctx, "queue.publish",
		tracer.ResourceName(p.subject),
		tracer.Tag("message.id", messageID),
		tracer.Tag("tenant.id", tenantID))

	msg := nats.NewMsg(p.subject)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, messageID)
	msg.Header.Set("Content-Type", "application/json")

	if err := tracer.Inject(span.Context(), tracer.HTTPHeadersCarrier(http.Header(msg.Header))); err != nil {
		log.DebugContext(ctx).Err(err).Msg("could not inject trace headers")
	}

	_, err = p.publisher.PublishMsg(msg, nats.Context(ctx))
	span.Finish(tracer.WithError(err))

	ctx = log.WithMessage(log.WithTenant(ctx, tenantID), messageID)

	if err != nil {
		metrics.IncEnqueued("unavailable")

		log.WarnContext(ctx).
			Err(err).
			Msg("could not publish email job")

		return "", fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	metrics.IncEnqueued("accepted")

	log.InfoContext(ctx).
		Int("recipients", len(email.Recipients)).
		Int("attachments", len(email.Attachments)).
		Msg("email job enqueued")

	return messageID, nil
}
