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
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/lukasdietrich/briefbote/internal/log"
)

func init() {
	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.service", "briefbote")
	viper.SetDefault("tracing.env", "")
	viper.SetDefault("tracing.agent", "")
}

type Options struct {
	Enabled bool
	Service string
	Env     string
	// Agent is the host:port of the trace agent. The tracer default is used when empty.
	Agent   string
	Version string
}

// OptionsFromViper reads the tracer settings. Version is left to the caller.
func OptionsFromViper() Options {
	return Options{
		Enabled: viper.GetBool("tracing.enabled"),
		Service: viper.GetString("tracing.service"),
		Env:     viper.GetString("tracing.env"),
		Agent:   viper.GetString("tracing.agent"),
	}
}

// Start starts the global tracer and returns a function to flush and stop it. If tracing is
// disabled, spans are still created but never leave the process.
func Start(opts Options) func() {
	if !opts.Enabled {
		return func() {}
	}

	tracer.Start(startOptions(opts)...)

	log.Info().
		Str("service", opts.Service).
		Str("env", opts.Env).
		Msg("tracing started")

	return tracer.Stop
}

func startOptions(opts Options) []tracer.StartOption {
	startOpts := []tracer.StartOption{
		tracer.WithService(opts.Service),
		tracer.WithLogger(logger{}),
		tracer.WithLogStartup(false),
	}

	if opts.Env != "" {
		startOpts = append(startOpts, tracer.WithEnv(opts.Env))
	}

	if opts.Agent != "" {
		startOpts = append(startOpts, tracer.WithAgentAddr(opts.Agent))
	}

	if opts.Version != "" {
		startOpts = append(startOpts, tracer.WithServiceVersion(opts.Version))
	}

	return startOpts
}

// logger forwards tracer messages to the application log.
type logger struct{}

func (logger) Log(msg string) {
	log.Debug().
		Str("origin", "tracer").
		Msg(strings.TrimSpace(msg))
}
