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
	"errors"
	"strings"

	"github.com/fernet/fernet-go"
	"github.com/spf13/viper"
)

var (
	// ErrDecryption is returned for tokens that are malformed, tampered with or encrypted with a
	// key that is not part of the key ring.
	ErrDecryption = errors.New("crypto: could not decrypt secret")
	// ErrNoKeys is returned when the key ring is empty.
	ErrNoKeys = errors.New("crypto: no secret keys configured")
)

func init() {
	viper.SetDefault("security.secrets.keys", []string{})
}

type SecretOptions struct {
	// Keys are base64 encoded Fernet keys. The first one is used for encryption, all of them are
	// tried for decryption.
	Keys []string
}

func SecretOptionsFromViper() SecretOptions {
	var keys []string

	for _, value := range viper.GetStringSlice("security.secrets.keys") {
		for _, key := range strings.Split(value, ",") {
			if key = strings.TrimSpace(key); key != "" {
				keys = append(keys, key)
			}
		}
	}

	return SecretOptions{Keys: keys}
}

// SecretBox encrypts secrets at rest, like the SMTP passwords of tenants.
type SecretBox interface {
	// Encrypt encrypts plaintext with the primary key.
	Encrypt(plaintext string) (string, error)
	// Decrypt decrypts a token with any key of the key ring.
	Decrypt(token string) (string, error)
	// Reencrypt decrypts a token and encrypts it again with the primary key.
	Reencrypt(token string) (string, error)
}

type fernetSecretBox struct {
	keys []*fernet.Key
}

func NewSecretBox(opts SecretOptions) (SecretBox, error) {
	if len(opts.Keys) == 0 {
		return nil, ErrNoKeys
	}

	keys, err := fernet.DecodeKeys(opts.Keys...)
	if err != nil {
		return nil, err
	}

	return &fernetSecretBox{keys: keys}, nil
}

func (b *fernetSecretBox) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	token, err := fernet.EncryptAndSign([]byte(plaintext), b.keys[0])
	if err != nil {
		return "", err
	}

	return string(token), nil
}

func (b *fernetSecretBox) Decrypt(token string) (string, error) {
	if token == "" {
		return "", nil
	}

	// a ttl of zero disables the expiry check
	plaintext := fernet.VerifyAndDecrypt([]byte(token), 0, b.keys)
	if plaintext == nil {
		return "", ErrDecryption
	}

	return string(plaintext), nil
}

func (b *fernetSecretBox) Reencrypt(token string) (string, error) {
	plaintext, err := b.Decrypt(token)
	if err != nil {
		return "", err
	}

	return b.Encrypt(plaintext)
}

// GenerateSecretKey returns a new base64 encoded Fernet key.
func GenerateSecretKey() (string, error) {
	var key fernet.Key

	if err := key.Generate(); err != nil {
		return "", err
	}

	return key.Encode(), nil
}
