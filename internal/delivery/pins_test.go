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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPins(t *testing.T) {
	pins := NewPins()

	pins.Pin([]string{"1/a", "1/b"})
	pins.Pin([]string{"1/a"})

	assert.True(t, pins.Pinned("1/a"))
	assert.True(t, pins.Pinned("1/b"))
	assert.False(t, pins.Pinned("1/c"))

	assert.Equal(t, []string{"1/b"}, pins.Unpin([]string{"1/a", "1/b"}))
	assert.True(t, pins.Pinned("1/a"))
	assert.False(t, pins.Pinned("1/b"))

	assert.Equal(t, []string{"1/a"}, pins.Unpin([]string{"1/a"}))
	assert.False(t, pins.Pinned("1/a"))
}

func TestPinsSamePathTwice(t *testing.T) {
	pins := NewPins()

	pins.Pin([]string{"1/a", "1/a"})
	assert.Equal(t, []string{"1/a"}, pins.Unpin([]string{"1/a", "1/a"}))
}

func TestPinsUnpinUnknown(t *testing.T) {
	assert.Empty(t, NewPins().Unpin([]string{"1/a"}))
}
