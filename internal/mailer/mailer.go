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
	"errors"
	"io"

	"github.com/google/wire"

	"github.com/lukasdietrich/briefbote/internal/models"
)

// WireSet provides the renderer and the SMTP mailer.
var WireSet = wire.NewSet(
	RendererOptionsFromViper,
	NewRenderer,
	SMTPOptionsFromViper,
	NewSMTPMailer,
	wire.Bind(new(Mailer), new(*SMTPMailer)),
)

var (
	// ErrMessage is returned for messages that can never be sent, like invalid addresses.
	ErrMessage = errors.New("mailer: invalid message")
	// ErrServerConfig is returned for unusable relay settings.
	ErrServerConfig = errors.New("mailer: invalid server configuration")
	// ErrTransport is returned for network and SMTP errors. Sending again may succeed.
	ErrTransport = errors.New("mailer: transport error")
)

// Server are the relay settings of a tenant with the decrypted password.
type Server struct {
	Host           string
	Port           int
	Username       string
	Password       string
	StartTLS       bool
	ImplicitTLS    bool
	UseCredentials bool
	ValidateCerts  bool
}

type Attachment struct {
	Filename    string
	ContentType string
	Content     io.ReadSeeker
}

type Message struct {
	From        models.Address
	Recipients  []models.Address
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Mailer sends a message through a relay.
type Mailer interface {
	Send(ctx context.Context, server Server, message Message) error
}
