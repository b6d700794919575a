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

package storage

import "errors"

var (
	// ErrAttachmentMissing is returned for descriptors whose file does not exist (anymore).
	ErrAttachmentMissing = errors.New("storage: attachment missing")
	// ErrTooLarge is returned when an upload exceeds the configured size limit.
	ErrTooLarge = errors.New("storage: attachment too large")
	// ErrInvalidPath is returned for descriptors pointing outside of the attachment store.
	ErrInvalidPath = errors.New("storage: invalid attachment path")
)
