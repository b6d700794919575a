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

package tracing

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukasdietrich/briefbote/internal/log"
)

func TestOptionsFromViper(t *testing.T) {
	opts := OptionsFromViper()

	assert.False(t, opts.Enabled)
	assert.Equal(t, "briefbote", opts.Service)
	assert.Empty(t, opts.Agent)
}

func TestStartDisabled(t *testing.T) {
	stop := Start(Options{Enabled: false})

	require.NotNil(t, stop)
	stop()
}

func TestStartOptions(t *testing.T) {
	assert.Len(t, startOptions(Options{Service: "svc"}), 3)
	assert.Len(t, startOptions(Options{Service: "svc", Env: "prod", Agent: "dd:8126", Version: "1"}), 6)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, log.Setup(&buf, log.Options{Level: "debug", Format: "json"}))
	defer log.Setup(os.Stderr, log.Options{Level: "info", Format: "json"}) // nolint:errcheck

	logger{}.Log("Datadog Tracer v1 WARN: agent unreachable\n")

	assert.Contains(t, buf.String(), `"origin":"tracer"`)
	assert.Contains(t, buf.String(), `"message":"Datadog Tracer v1 WARN: agent unreachable"`)
}
