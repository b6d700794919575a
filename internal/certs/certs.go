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

package certs

import (
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/google/wire"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/lukasdietrich/briefbote/internal/log"
)

// WireSet provides the tls config of the http api.
var WireSet = wire.NewSet(
	OptionsFromViper,
	NewTLSConfig,
)

const (
	SourceNone    = "none"
	SourceFiles   = "files"
	SourceTraefik = "traefik"
)

func init() {
	viper.SetDefault("tls.source", SourceNone)
	viper.SetDefault("tls.files.crt", "cert/briefbote.crt")
	viper.SetDefault("tls.files.key", "cert/briefbote.key")
	viper.SetDefault("tls.traefik.acme", "/etc/traefik/acme.json")
	viper.SetDefault("tls.traefik.domain", "localhost")
}

type Options struct {
	Source string

	CrtFile string
	KeyFile string

	AcmeFile string
	Domain   string
}

func OptionsFromViper() Options {
	return Options{
		Source:   viper.GetString("tls.source"),
		CrtFile:  viper.GetString("tls.files.crt"),
		KeyFile:  viper.GetString("tls.files.key"),
		AcmeFile: viper.GetString("tls.traefik.acme"),
		Domain:   viper.GetString("tls.traefik.domain"),
	}
}

type certSource interface {
	lastUpdate() (time.Time, error)
	load() (*tls.Certificate, error)
}

// NewTLSConfig creates a tls config, which reloads the certificate whenever the configured
// source reports an update. It returns nil when tls is disabled.
func NewTLSConfig(fs afero.Fs, opts Options) (*tls.Config, error) {
	var source certSource

	switch opts.Source {
	case SourceNone, "":
		return nil, nil
	case SourceFiles:
		source = &filesCertSource{fs: fs, crtFilename: opts.CrtFile, keyFilename: opts.KeyFile}
	case SourceTraefik:
		source = &traefikCertSource{fs: fs, acmeFilename: opts.AcmeFile, domain: opts.Domain}
	default:
		return nil, fmt.Errorf("unknown certificate source %q", opts.Source)
	}

	var (
		lastCert *tls.Certificate
		lastTime time.Time
		lock     sync.Mutex
	)

	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		GetCertificate: func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
			lock.Lock()
			defer lock.Unlock()

			newTime, err := source.lastUpdate()
			if err != nil {
				return nil, fmt.Errorf("could not check for certificate updates: %w", err)
			}

			if newTime.After(lastTime) {
				newCert, err := source.load()
				if err != nil {
					return nil, fmt.Errorf("could not load certificate: %w", err)
				}

				lastTime = newTime
				lastCert = newCert

				log.Debug().
					Str("source", opts.Source).
					Time("updated", newTime).
					Msg("new certificate loaded")
			}

			return lastCert, nil
		},
	}, nil
}
