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
	"database/sql/driver"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyAddress(t *testing.T) {
	addr, err := Parse("")
	assert.Equal(t, ErrInvalidAddressFormat, err)
	assert.Zero(t, addr)
}

func TestInvalidAddress(t *testing.T) {
	for _, raw := range []string{
		"no-at-sign",
		"@example.com",
		"someone@",
		"some one@example.com",
		"<someone@example.com>",
		"a@example.com,b@example.com",
	} {
		addr, err := Parse(raw)
		assert.Equal(t, ErrInvalidAddressFormat, err, raw)
		assert.Zero(t, addr)
	}
}

func TestTooLongAddress(t *testing.T) {
	for _, raw := range []string{
		strings.Repeat("a", 200) + "@" + strings.Repeat("a", 200),
		strings.Repeat("a", 65) + "@a",
		strings.Repeat("a", 64) + "@" + strings.Repeat("a", 192),
	} {
		addr, err := Parse(raw)
		assert.Equal(t, ErrPathTooLong, err)
		assert.Zero(t, addr)
	}
}

func TestValidAddress(t *testing.T) {
	for _, raw := range []string{
		strings.Repeat("a", 64) + "@" + strings.Repeat("a", 100),
		"user+suffix@example.com",
		"someone@dömäin.example",
	} {
		addr, err := Parse(raw)
		assert.NoError(t, err)
		assert.False(t, addr.IsZero())
		assert.Equal(t, raw, addr.String())
	}
}

func TestDomainToASCII(t *testing.T) {
	for domain, expected := range map[string]string{
		"example.com":     "example.com",
		"dömäin.example":  "xn--dmin-moa0i.example",
		"DÖMÄIN.example":  "xn--dmin-moa0i.example",
		"déjà.vu.example": "xn--dj-kia8a.vu.example",
		// nontransitional processing keeps the sharp s
		"fußball.example": "xn--fuball-cta.example",
	} {
		actual, err := DomainToASCII(domain)
		assert.NoError(t, err)
		assert.Equal(t, expected, actual, domain)
	}
}

func TestParseUnicode(t *testing.T) {
	actual, err := ParseUnicode("someone@xn--dmin-moa0i.example")
	assert.NoError(t, err)
	assert.Equal(t, "someone@dömäin.example", actual.String())
	assert.Equal(t, "someone", actual.LocalPart())
	assert.Equal(t, "dömäin.example", actual.Domain())
}

func TestAddressASCII(t *testing.T) {
	addr, err := Parse("someone@dömäin.example")
	require.NoError(t, err)

	ascii, err := addr.ASCII()
	assert.NoError(t, err)
	assert.Equal(t, "someone@xn--dmin-moa0i.example", ascii)
}

func TestAddressJSON(t *testing.T) {
	var addrs []Address
	require.NoError(t, json.Unmarshal([]byte(`["a@example.com","b@xn--dmin-moa0i.example"]`), &addrs))
	require.Len(t, addrs, 2)
	assert.Equal(t, "b@dömäin.example", addrs[1].String())

	encoded, err := json.Marshal(addrs[0])
	assert.NoError(t, err)
	assert.JSONEq(t, `"a@example.com"`, string(encoded))

	assert.Error(t, json.Unmarshal([]byte(`["not an address"]`), &addrs))
}

func TestImplementsScanner(t *testing.T) {
	addr := new(Address)
	var scanner sql.Scanner = addr

	assert.NoError(t, scanner.Scan("someone@example.com"))
	assert.Equal(t, "someone", addr.LocalPart())
	assert.Equal(t, "example.com", addr.Domain())
}

func TestImplementsValuer(t *testing.T) {
	addr, err := Parse("someone@example.com")
	assert.NoError(t, err)

	var valuer driver.Valuer = addr

	value, err := valuer.Value()
	assert.NoError(t, err)
	assert.Equal(t, "someone@example.com", value)
}
