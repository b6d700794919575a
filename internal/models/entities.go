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

package models

import (
	"database/sql"
)

// TenantEntity is an isolated customer with its own SMTP relay configuration.
type TenantEntity struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
	// APIKeyHash is the hex encoded sha256 digest of the api credential.
	APIKeyHash   string `db:"api_key_hash"`
	SMTPUsername string `db:"smtp_username"`
	// SMTPPassword is the encrypted password. It must be decrypted before use.
	SMTPPassword   string  `db:"smtp_password"`
	MailFrom       Address `db:"mail_from"`
	SMTPHost       string  `db:"smtp_host"`
	SMTPPort       int     `db:"smtp_port"`
	StartTLS       bool    `db:"smtp_starttls"`
	ImplicitTLS    bool    `db:"smtp_ssl_tls"`
	UseCredentials bool    `db:"use_credentials"`
	ValidateCerts  bool    `db:"validate_certs"`
	Active         bool    `db:"active"`
	CreatedAt      int64   `db:"created_at"`
}

type MessageStatus string

const (
	// StatusSuccess is a message that has been handed to the tenant's relay.
	StatusSuccess MessageStatus = "SUCCESS"
	// StatusFailed is a message that failed permanently and will not be attempted again.
	StatusFailed MessageStatus = "FAILED"
	// StatusPending is reported for messages without a ledger row. It is never stored.
	StatusPending MessageStatus = "PENDING"
)

// ProcessedMessageEntity is a row in the processed-message ledger. There is at most one row per
// message id.
type ProcessedMessageEntity struct {
	MessageID   string         `db:"message_id"`
	TenantID    int64          `db:"tenant_id"`
	Status      MessageStatus  `db:"status"`
	ProcessedAt int64          `db:"processed_at"`
	Reason      sql.NullString `db:"reason"`
}

// MessageClaimEntity marks a message as being worked on by one worker until ExpiresAt.
type MessageClaimEntity struct {
	MessageID string `db:"message_id"`
	Owner     string `db:"owner"`
	ClaimedAt int64  `db:"claimed_at"`
	ExpiresAt int64  `db:"expires_at"`
}
