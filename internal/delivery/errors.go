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

import "errors"

var (
	// ErrInFlight is returned when another live worker holds the claim of a message.
	ErrInFlight = errors.New("delivery: message is claimed by another worker")
	// ErrLedgerConflict is returned when a message has been recorded concurrently. It means the
	// message has already been processed.
	ErrLedgerConflict = errors.New("delivery: message already recorded")
	// ErrTenantInactive is recorded for jobs of tenants that have been deactivated after enqueue.
	ErrTenantInactive = errors.New("delivery: tenant inactive")
	// ErrAttemptsExhausted is recorded when the last allowed delivery failed with a transport error.
	ErrAttemptsExhausted = errors.New("delivery: delivery attempts exhausted")
)
