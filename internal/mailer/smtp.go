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

package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/wneessen/go-mail"

	"github.com/lukasdietrich/briefbote/internal/log"
	"github.com/lukasdietrich/briefbote/internal/metrics"
)

func init() {
	viper.SetDefault("mailer.timeout", 30*time.Second)
}

type SMTPOptions struct {
	Timeout time.Duration
}

func SMTPOptionsFromViper() SMTPOptions {
	return SMTPOptions{
		Timeout: viper.GetDuration("mailer.timeout"),
	}
}

// SMTPMailer opens a new connection to the tenant's relay for every message.
type SMTPMailer struct {
	timeout time.Duration
}

func NewSMTPMailer(opts SMTPOptions) *SMTPMailer {
	return &SMTPMailer{timeout: opts.Timeout}
}

func (m *SMTPMailer) Send(ctx context.Context, server Server, message Message) error {
	msg, err := buildMessage(message)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(server.Host, clientOptions(server, m.timeout)...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServerConfig, err)
	}

	log.DebugContext(ctx).
		Str("host", server.Host).
		Int("port", server.Port).
		Bool("starttls", server.StartTLS).
		Bool("ssl", server.ImplicitTLS).
		Msg("sending message")

	start := time.Now()
	err = client.DialAndSendWithContext(ctx, msg)
	metrics.ObserveSendDuration(time.Since(start))

	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	return nil
}

func clientOptions(server Server, timeout time.Duration) []mail.Option {
	opts := []mail.Option{
		mail.WithPort(server.Port),
		mail.WithTimeout(timeout),
		mail.WithTLSConfig(&tls.Config{
			ServerName:         server.Host,
			InsecureSkipVerify: !server.ValidateCerts, // nolint:gosec
			MinVersion:         tls.VersionTLS12,
		}),
	}

	switch {
	case server.ImplicitTLS:
		opts = append(opts, mail.WithSSL())
	case server.StartTLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if server.UseCredentials {
		opts = append(opts,
			mail.WithSMTPAuth(authType(server)),
			mail.WithUsername(server.Username),
			mail.WithPassword(server.Password))
	}

	return opts
}

// authType selects PLAIN authentication. Relays without any tls are logged into in plain text,
// which the encrypted variant refuses for hosts other than localhost.
func authType(server Server) mail.SMTPAuthType {
	if !server.ImplicitTLS && !server.StartTLS {
		return mail.SMTPAuthPlainNoEnc
	}

	return mail.SMTPAuthPlain
}

func buildMessage(message Message) (*mail.Msg, error) {
	msg := mail.NewMsg()

	from, err := message.From.ASCII()
	if err != nil {
		return nil, fmt.Errorf("%w: sender: %v", ErrMessage, err)
	}

	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("%w: sender: %v", ErrMessage, err)
	}

	if len(message.Recipients) == 0 {
		return nil, fmt.Errorf("%w: no recipients", ErrMessage)
	}

	recipients := make([]string, len(message.Recipients))
	for i, recipient := range message.Recipients {
		if recipients[i], err = recipient.ASCII(); err != nil {
			return nil, fmt.Errorf("%w: recipient: %v", ErrMessage, err)
		}
	}

	if err := msg.To(recipients...); err != nil {
		return nil, fmt.Errorf("%w: recipient: %v", ErrMessage, err)
	}

	msg.Subject(message.Subject)
	msg.SetBodyString(mail.TypeTextHTML, message.HTML)

	for _, attachment := range message.Attachments {
		var fileOpts []mail.FileOption
		if attachment.ContentType != "" {
			fileOpts = append(fileOpts, mail.WithFileContentType(mail.ContentType(attachment.ContentType)))
		}

		msg.AttachReadSeeker(attachment.Filename, attachment.Content, fileOpts...)
	}

	return msg, nil
}
