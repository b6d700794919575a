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
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/wire"
	"github.com/spf13/viper"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/lukasdietrich/briefbote/internal/crypto"
	"github.com/lukasdietrich/briefbote/internal/log"
	"github.com/lukasdietrich/briefbote/internal/mailer"
	"github.com/lukasdietrich/briefbote/internal/metrics"
	"github.com/lukasdietrich/briefbote/internal/models"
	"github.com/lukasdietrich/briefbote/internal/queue"
	"github.com/lukasdietrich/briefbote/internal/storage"
	"github.com/lukasdietrich/briefbote/internal/tenants"
)

// WireSet provides the dispatch worker and the attachment sweeper.
var WireSet = wire.NewSet(
	NewLedger,
	NewPins,
	DispatcherOptionsFromViper,
	NewDispatcher,
	WorkerOptionsFromViper,
	NewWorker,
	wire.Bind(new(Handler), new(*Dispatcher)),
	wire.Bind(new(queue.Source), new(*queue.Consumer)),
	NewSweeper,
)

func init() {
	viper.SetDefault("worker.name", "")
	viper.SetDefault("worker.retrydelay", 30*time.Second)
	// Zero follows queue.ackwait.
	viper.SetDefault("worker.claimlease", time.Duration(0))
}

const (
	outcomeSuccess   = "success"
	outcomeFailed    = "failed"
	outcomeDuplicate = "duplicate"
	outcomeDropped   = "dropped"
	outcomeRetry     = "retry"
)

type DispatcherOptions struct {
	// Name identifies this worker instance in message claims.
	Name string
	// RetryDelay is the delay before a message is redelivered after a transient failure.
	RetryDelay time.Duration
	// ClaimLease is the time a claim is honored by other workers. It must not exceed the ack wait
	// of the broker, or the redelivery of a crashed worker's message finds the claim still live.
	ClaimLease time.Duration
	// MaxDeliver is the number of deliveries the broker attempts. A transport failure of the last
	// delivery is permanent.
	MaxDeliver int
}

func DispatcherOptionsFromViper(queueOpts queue.Options) (DispatcherOptions, error) {
	name := viper.GetString("worker.name")
	if name == "" {
		hostname, _ := os.Hostname()
		name = fmt.Sprintf("%s-%d", hostname, os.Getpid())
	}

	lease := viper.GetDuration("worker.claimlease")
	if lease <= 0 {
		lease = queueOpts.AckWait
	}

	if queueOpts.AckWait > 0 && lease > queueOpts.AckWait {
		return DispatcherOptions{}, fmt.Errorf(
			"worker.claimlease (%s) must not exceed queue.ackwait (%s)", lease, queueOpts.AckWait)
	}

	return DispatcherOptions{
		Name:       name,
		RetryDelay: viper.GetDuration("worker.retrydelay"),
		ClaimLease: lease,
		MaxDeliver: queueOpts.MaxDeliver,
	}, nil
}

// verdict is the result of handling a single delivery.
type verdict struct {
	outcome string
	// requeue negatively acknowledges the delivery, so that the broker redelivers it.
	requeue bool
	// delay overrides the retry delay of a requeued delivery.
	delay time.Duration
	// cleanup removes the attachments of the job once no other in-flight message references them.
	cleanup bool
}

// Dispatcher turns queue deliveries into sent emails. Every delivery is either acknowledged
// (sent, duplicate or permanently failed) or negatively acknowledged (transient failure).
type Dispatcher struct {
	ledger      *Ledger
	directory   *tenants.Directory
	attachments storage.Attachments
	renderer    *mailer.Renderer
	mailer      mailer.Mailer
	pins        *Pins
	idGen       crypto.IDGenerator
	opts        DispatcherOptions
}

func NewDispatcher(
	ledger *Ledger,
	directory *tenants.Directory,
	attachments storage.Attachments,
	renderer *mailer.Renderer,
	m mailer.Mailer,
	pins *Pins,
	idGen crypto.IDGenerator,
	opts DispatcherOptions,
) *Dispatcher {
	return &Dispatcher{
		ledger:      ledger,
		directory:   directory,
		attachments: attachments,
		renderer:    renderer,
		mailer:      m,
		pins:        pins,
		idGen:       idGen,
		opts:        opts,
	}
}

// Dispatch handles a single delivery. It never returns an error: permanent failures are recorded
// and acknowledged, transient failures are handed back to the broker.
func (d *Dispatcher) Dispatch(ctx context.Context, delivery queue.Delivery) {
	defer metrics.TrackInFlight()()

	span, ctx := d.startSpan(ctx, delivery)
	defer span.Finish()

	job, err := models.DecodeJob(delivery.Data())
	if err != nil {
		log.WarnContext(ctx).
			Err(err).
			Msg("dropping malformed payload")

		span.SetTag("outcome", outcomeDropped)
		metrics.IncDispatched(outcomeDropped)

		if err := delivery.Term(); err != nil {
			log.WarnContext(ctx).Err(err).Msg("could not terminate delivery")
		}

		return
	}

	ctx = log.WithTenant(log.WithMessage(ctx, job.MessageID), job.TenantID)
	span.SetTag("message.id", job.MessageID)
	span.SetTag("tenant.id", job.TenantID)

	v := d.handlePinned(ctx, job, delivery)

	span.SetTag("outcome", v.outcome)
	metrics.IncDispatched(v.outcome)

	d.settle(ctx, delivery, v)
}

// handlePinned pins the attachments of the job while it is handled. The pins are dropped even if
// handling panics.
func (d *Dispatcher) handlePinned(ctx context.Context, job *models.EmailJob, delivery queue.Delivery) (v verdict) {
	paths := attachmentPaths(job)
	d.pins.Pin(paths)

	defer func() {
		released := d.pins.Unpin(paths)
		if v.cleanup {
			d.cleanup(ctx, job.TenantID, released)
		}
	}()

	return d.handle(ctx, job, delivery)
}

func (d *Dispatcher) startSpan(ctx context.Context, delivery queue.Delivery) (ddtrace.Span, context.Context) {
	opts := []tracer.StartSpanOption{
		tracer.ResourceName("dispatch"),
	}

	carrier := tracer.HTTPHeadersCarrier(http.Header(delivery.Header()))
	if parent, err := tracer.Extract(carrier); err == nil {
		opts = append(opts, tracer.ChildOf(parent))
	}

	return tracer.StartSpanFromContext(ctx, "queue.dispatch", opts...)
}

func (d *Dispatcher) settle(ctx context.Context, delivery queue.Delivery, v verdict) {
	if v.requeue {
		delay := d.opts.RetryDelay
		if v.delay > 0 {
			delay = v.delay
		}

		if err := delivery.Nak(delay); err != nil {
			log.WarnContext(ctx).Err(err).Msg("could not nak delivery")
		}

		return
	}

	if err := delivery.Ack(); err != nil {
		// The message will be redelivered and recognized as a duplicate.
		log.WarnContext(ctx).Err(err).Msg("could not ack delivery")
	}
}

func (d *Dispatcher) handle(ctx context.Context, job *models.EmailJob, delivery queue.Delivery) verdict {
	processed, err := d.ledger.IsProcessed(ctx, job.MessageID)
	if err != nil {
		return d.retry(ctx, err, "could not query ledger")
	}

	if processed {
		log.DebugContext(ctx).Msg("skipping duplicate message")
		return verdict{outcome: outcomeDuplicate}
	}

	owner, err := d.newOwner()
	if err != nil {
		return d.retry(ctx, err, "could not generate claim owner")
	}

	expiresAt, err := d.ledger.Claim(ctx, job.MessageID, owner, d.opts.ClaimLease)
	switch {
	case err == nil:
	case !errors.Is(err, ErrInFlight):
		return d.retry(ctx, err, "could not claim message")
	case !d.isLastAttempt(delivery):
		delay := d.leaseDelay(expiresAt)

		log.InfoContext(ctx).
			Time("expires", expiresAt).
			Dur("delay", delay).
			Msg("message is being handled by another worker")

		return verdict{outcome: outcomeRetry, requeue: true, delay: delay}
	default:
		// The broker will not redeliver the message again. Sending it twice is preferred over
		// losing it to a claim that may belong to a crashed worker.
		log.WarnContext(ctx).
			Time("expires", expiresAt).
			Int("attempt", delivery.Attempt()).
			Msg("seizing claim on the last delivery attempt")

		if err := d.ledger.Seize(ctx, job.MessageID, owner, d.opts.ClaimLease); err != nil {
			return d.retry(ctx, err, "could not seize claim")
		}
	}

	// Recording drops the claim as well, releasing it again is a no-op then.
	defer func() {
		if err := d.ledger.Release(ctx, job.MessageID, owner); err != nil {
			log.WarnContext(ctx).Err(err).Msg("could not release claim")
		}
	}()

	return d.handleClaimed(ctx, job, delivery, owner)
}

func (d *Dispatcher) isLastAttempt(delivery queue.Delivery) bool {
	return d.opts.MaxDeliver > 0 && delivery.Attempt() >= d.opts.MaxDeliver
}

// leaseDelay postpones a redelivery until the claim expiring at expiresAt can be taken over.
func (d *Dispatcher) leaseDelay(expiresAt time.Time) time.Duration {
	// Claims expire with second precision.
	delay := time.Until(expiresAt) + time.Second
	if delay < d.opts.RetryDelay {
		return d.opts.RetryDelay
	}

	return delay
}

func (d *Dispatcher) handleClaimed(
	ctx context.Context,
	job *models.EmailJob,
	delivery queue.Delivery,
	owner string,
) verdict {
	// A worker may have recorded the message between the first check and the claim.
	processed, err := d.ledger.IsProcessed(ctx, job.MessageID)
	if err != nil {
		return d.retry(ctx, err, "could not query ledger")
	}

	if processed {
		log.DebugContext(ctx).Msg("skipping duplicate message")
		return verdict{outcome: outcomeDuplicate}
	}

	tenant, err := d.directory.Resolve(ctx, job.TenantID)
	if err != nil {
		if errors.Is(err, tenants.ErrTenantNotFound) {
			log.WarnContext(ctx).
				Err(err).
				Msg("dropping message of unknown tenant")

			return verdict{outcome: outcomeDropped, cleanup: true}
		}

		return d.retry(ctx, err, "could not resolve tenant")
	}

	if !tenant.Active {
		log.WarnContext(ctx).Msg("dropping message of inactive tenant")
		return d.fail(ctx, job, owner, ErrTenantInactive)
	}

	password, err := d.directory.Credentials(tenant)
	if err != nil {
		log.ErrorContext(ctx).
			Err(err).
			Bool("alert", true).
			Msg("could not decrypt smtp credentials, check the secret keys")

		return d.fail(ctx, job, owner, err)
	}

	html, err := d.renderer.Render(tenant.ID, job.Email.Template(), job.Email.TemplateVars)
	if err != nil {
		log.WarnContext(ctx).
			Err(err).
			Str("template", job.Email.Template()).
			Msg("could not render template")

		return d.fail(ctx, job, owner, err)
	}

	attachments, closeAll, err := d.openAttachments(ctx, job)
	if err != nil {
		return d.retry(ctx, err, "could not open attachments")
	}

	defer closeAll()

	server := mailer.Server{
		Host:           tenant.SMTPHost,
		Port:           tenant.SMTPPort,
		Username:       tenant.SMTPUsername,
		Password:       password,
		StartTLS:       tenant.StartTLS,
		ImplicitTLS:    tenant.ImplicitTLS,
		UseCredentials: tenant.UseCredentials,
		ValidateCerts:  tenant.ValidateCerts,
	}

	message := mailer.Message{
		From:        tenant.MailFrom,
		Recipients:  job.Email.Recipients,
		Subject:     job.Email.Subject,
		HTML:        html,
		Attachments: attachments,
	}

	if err := d.mailer.Send(ctx, server, message); err != nil {
		return d.handleSendError(ctx, job, delivery, owner, err)
	}

	log.InfoContext(ctx).
		Int("recipients", len(message.Recipients)).
		Int("attachments", len(message.Attachments)).
		Msg("email sent")

	if err := d.ledger.Record(ctx, job.MessageID, job.TenantID, models.StatusSuccess, nil, owner); err != nil {
		if errors.Is(err, ErrLedgerConflict) {
			log.InfoContext(ctx).Msg("message has been recorded by another worker")
			return verdict{outcome: outcomeSuccess, cleanup: true}
		}

		// The email may be sent again on redelivery, which is preferred over losing it.
		return d.retry(ctx, err, "could not record sent message")
	}

	return verdict{outcome: outcomeSuccess, cleanup: true}
}

func (d *Dispatcher) handleSendError(
	ctx context.Context,
	job *models.EmailJob,
	delivery queue.Delivery,
	owner string,
	err error,
) verdict {
	if !errors.Is(err, mailer.ErrTransport) {
		log.WarnContext(ctx).
			Err(err).
			Msg("email rejected permanently")

		return d.fail(ctx, job, owner, err)
	}

	attempt := delivery.Attempt()

	if d.isLastAttempt(delivery) {
		log.WarnContext(ctx).
			Err(err).
			Int("attempt", attempt).
			Msg("giving up on email after last delivery attempt")

		return d.fail(ctx, job, owner, fmt.Errorf("%w: %v", ErrAttemptsExhausted, err))
	}

	log.WarnContext(ctx).
		Err(err).
		Int("attempt", attempt).
		Dur("delay", d.opts.RetryDelay).
		Msg("could not send email, scheduling redelivery")

	return verdict{outcome: outcomeRetry, requeue: true}
}

// fail records a permanent failure. The job is acknowledged and its attachments are removed.
func (d *Dispatcher) fail(ctx context.Context, job *models.EmailJob, owner string, reason error) verdict {
	err := d.ledger.Record(ctx, job.MessageID, job.TenantID, models.StatusFailed, reason, owner)
	if err != nil && !errors.Is(err, ErrLedgerConflict) {
		return d.retry(ctx, err, "could not record failed message")
	}

	return verdict{outcome: outcomeFailed, cleanup: true}
}

func (d *Dispatcher) retry(ctx context.Context, err error, msg string) verdict {
	log.WarnContext(ctx).Err(err).Msg(msg)
	return verdict{outcome: outcomeRetry, requeue: true}
}

func (d *Dispatcher) newOwner() (string, error) {
	id, err := d.idGen.GenerateID()
	if err != nil {
		return "", err
	}

	return d.opts.Name + "/" + id, nil
}

// openAttachments opens the files of all attachments. Missing files and files of other tenants
// are skipped, the email is sent without them.
func (d *Dispatcher) openAttachments(ctx context.Context, job *models.EmailJob) ([]mailer.Attachment, func(), error) {
	var (
		attachments []mailer.Attachment
		closers     []func() error
	)

	closeAll := func() {
		for _, closer := range closers {
			_ = closer()
		}
	}

	for _, desc := range job.Email.Attachments {
		if !d.attachments.Owns(job.TenantID, desc) {
			log.WarnContext(ctx).
				Str("path", desc.Path).
				Msg("skipping attachment of another tenant")

			continue
		}

		f, err := d.attachments.Open(ctx, desc)
		if err != nil {
			if errors.Is(err, storage.ErrAttachmentMissing) {
				log.WarnContext(ctx).
					Str("path", desc.Path).
					Str("filename", desc.Filename).
					Msg("skipping missing attachment")

				continue
			}

			closeAll()
			return nil, nil, err
		}

		closers = append(closers, f.Close)
		attachments = append(attachments, mailer.Attachment{
			Filename:    desc.Filename,
			ContentType: desc.ContentType,
			Content:     f,
		})
	}

	return attachments, closeAll, nil
}

// cleanup removes the attachment files no in-flight message references anymore. Failures are
// logged only.
func (d *Dispatcher) cleanup(ctx context.Context, tenantID int64, paths []string) {
	var deleted int

	for _, path := range paths {
		desc := models.AttachmentDescriptor{Path: path}

		if !d.attachments.Owns(tenantID, desc) {
			continue
		}

		if err := d.attachments.Delete(ctx, desc); err != nil {
			log.WarnContext(ctx).
				Err(err).
				Str("path", path).
				Msg("could not remove attachment")

			continue
		}

		deleted++
	}

	metrics.IncAttachmentsDeleted("processed", deleted)
}

func attachmentPaths(job *models.EmailJob) []string {
	paths := make([]string, len(job.Email.Attachments))

	for i, desc := range job.Email.Attachments {
		paths[i] = desc.Path
	}

	return paths
}
