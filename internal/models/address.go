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
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrInvalidAddressFormat is used for addresses of zero length, without an "@" sign or with an
	// empty local part or domain.
	ErrInvalidAddressFormat = errors.New("address: invalid format")

	// ErrPathTooLong is used for addresses, that are too long or contain a path that is too long
	// according to RFC#5321.
	ErrPathTooLong = errors.New("address: path too long")

	// ZeroAddress is an invalid, zero value Address.
	ZeroAddress Address
)

// Address is a recipient or sender mailbox in the form local-part@domain.
type Address struct {
	raw string
	at  int
}

// ParseUnicode parses raw and converts the domain into its unicode representation.
func ParseUnicode(raw string) (Address, error) {
	addr, err := Parse(raw)
	if err != nil {
		return addr, err
	}

	domain, err := DomainToUnicode(addr.Domain())
	if err != nil {
		return ZeroAddress, ErrInvalidAddressFormat
	}

	if domain != addr.Domain() {
		addr.raw = addr.LocalPart() + "@" + domain
	}

	return addr, nil
}

func Parse(raw string) (Address, error) {
	raw = strings.TrimSpace(raw)

	if len(raw) == 0 {
		return ZeroAddress, ErrInvalidAddressFormat
	}

	at := strings.LastIndex(raw, "@")
	if at < 1 || at == len(raw)-1 {
		return ZeroAddress, ErrInvalidAddressFormat
	}

	// see RFC#5321 4.5.3.1
	if at > 64 || len(raw)-at > 256 || len(raw) > 256 {
		return ZeroAddress, ErrPathTooLong
	}

	if strings.IndexFunc(raw, isForbiddenRune) >= 0 {
		return ZeroAddress, ErrInvalidAddressFormat
	}

	return Address{raw, at}, nil
}

func isForbiddenRune(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r) || r == '<' || r == '>' || r == ','
}

func (a Address) String() string {
	return a.raw
}

func (a Address) IsZero() bool {
	return a.raw == ""
}

func (a Address) LocalPart() string {
	return a.raw[:a.at]
}

func (a Address) Domain() string {
	return a.raw[a.at+1:]
}

// ASCII returns the address with an IDNA encoded domain, as required on the SMTP envelope.
func (a Address) ASCII() (string, error) {
	if a.IsZero() {
		return "", ErrInvalidAddressFormat
	}

	domain, err := DomainToASCII(a.Domain())
	if err != nil {
		return "", err
	}

	return a.LocalPart() + "@" + domain, nil
}

func (a *Address) Scan(src interface{}) error {
	s, err := driver.String.ConvertValue(src)
	if err != nil {
		return err
	}

	v, err := Parse(s.(string))
	if err != nil {
		return err
	}

	*a = v
	return nil
}

func (a Address) Value() (driver.Value, error) {
	return a.raw, nil
}

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.raw)
}

func (a *Address) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	v, err := ParseUnicode(raw)
	if err != nil {
		return err
	}

	*a = v
	return nil
}

func DomainToUnicode(domain string) (string, error) {
	mapped, err := idna.Lookup.ToUnicode(domain)
	if err != nil {
		return domain, err
	}

	return norm.NFC.String(mapped), nil
}

func DomainToASCII(domain string) (string, error) {
	mapped, err := DomainToUnicode(domain)
	if err != nil {
		return domain, err
	}

	return idna.Lookup.ToASCII(mapped)
}
