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

package crypto

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

func TestSecretOptionsFromViper(t *testing.T) {
	viper.Set("security.secrets.keys", "key1, key2,,key3")
	defer viper.Set("security.secrets.keys", []string{})

	assert.Equal(t, SecretOptions{Keys: []string{"key1", "key2", "key3"}}, SecretOptionsFromViper())
}

func TestNewSecretBoxWithoutKeys(t *testing.T) {
	box, err := NewSecretBox(SecretOptions{})
	assert.Equal(t, ErrNoKeys, err)
	assert.Nil(t, box)
}

func TestNewSecretBoxInvalidKey(t *testing.T) {
	_, err := NewSecretBox(SecretOptions{Keys: []string{"not-a-key"}})
	assert.Error(t, err)
}

func TestSecretBoxTestSuite(t *testing.T) {
	suite.Run(t, new(SecretBoxTestSuite))
}

type SecretBoxTestSuite struct {
	suite.Suite

	primary   string
	secondary string
}

func (s *SecretBoxTestSuite) SetupTest() {
	var err error

	s.primary, err = GenerateSecretKey()
	s.Require().NoError(err)
	s.secondary, err = GenerateSecretKey()
	s.Require().NoError(err)
}

func (s *SecretBoxTestSuite) box(keys ...string) SecretBox {
	box, err := NewSecretBox(SecretOptions{Keys: keys})
	s.Require().NoError(err)
	return box
}

func (s *SecretBoxTestSuite) TestRoundTrip() {
	box := s.box(s.primary)

	token, err := box.Encrypt("smtp-password")
	s.Require().NoError(err)
	s.Assert().NotEqual("smtp-password", token)

	plaintext, err := box.Decrypt(token)
	s.Assert().NoError(err)
	s.Assert().Equal("smtp-password", plaintext)
}

func (s *SecretBoxTestSuite) TestEmpty() {
	box := s.box(s.primary)

	token, err := box.Encrypt("")
	s.Assert().NoError(err)
	s.Assert().Empty(token)

	plaintext, err := box.Decrypt("")
	s.Assert().NoError(err)
	s.Assert().Empty(plaintext)
}

func (s *SecretBoxTestSuite) TestWrongKey() {
	token, err := s.box(s.secondary).Encrypt("smtp-password")
	s.Require().NoError(err)

	plaintext, err := s.box(s.primary).Decrypt(token)
	s.Assert().Equal(ErrDecryption, err)
	s.Assert().Empty(plaintext)
}

func (s *SecretBoxTestSuite) TestGarbage() {
	plaintext, err := s.box(s.primary).Decrypt("gAAAAAB-definitely-not-a-token")
	s.Assert().Equal(ErrDecryption, err)
	s.Assert().Empty(plaintext)
}

func (s *SecretBoxTestSuite) TestKeyRotation() {
	oldToken, err := s.box(s.secondary).Encrypt("smtp-password")
	s.Require().NoError(err)

	rotated := s.box(s.primary, s.secondary)

	plaintext, err := rotated.Decrypt(oldToken)
	s.Require().NoError(err)
	s.Assert().Equal("smtp-password", plaintext)

	newToken, err := rotated.Reencrypt(oldToken)
	s.Require().NoError(err)

	plaintext, err = s.box(s.primary).Decrypt(newToken)
	s.Assert().NoError(err)
	s.Assert().Equal("smtp-password", plaintext)
}
