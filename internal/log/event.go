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

package log

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

func init() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
}

// Logger is the global application logger.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Caller().Logger()

type Options struct {
	Level  string
	Format string
}

func OptionsFromViper() Options {
	return Options{
		Level:  viper.GetString("log.level"),
		Format: viper.GetString("log.format"),
	}
}

// Setup replaces the global logger according to opts. The format "console" writes human readable
// lines, everything else writes json.
func Setup(w io.Writer, opts Options) error {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		return err
	}

	if strings.EqualFold(opts.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w}
	}

	Logger = zerolog.New(w).Level(level).With().Timestamp().Caller().Logger()
	return nil
}

func Trace() *zerolog.Event {
	return Logger.Trace()
}

func TraceContext(ctx context.Context) *zerolog.Event {
	return appendContextFields(ctx, Trace())
}

func Debug() *zerolog.Event {
	return Logger.Debug()
}

func DebugContext(ctx context.Context) *zerolog.Event {
	return appendContextFields(ctx, Debug())
}

func Info() *zerolog.Event {
	return Logger.Info()
}

func InfoContext(ctx context.Context) *zerolog.Event {
	return appendContextFields(ctx, Info())
}

func Warn() *zerolog.Event {
	return Logger.Warn()
}

func WarnContext(ctx context.Context) *zerolog.Event {
	return appendContextFields(ctx, Warn())
}

func Error() *zerolog.Event {
	return Logger.Error()
}

func ErrorContext(ctx context.Context) *zerolog.Event {
	return appendContextFields(ctx, Error())
}

func Fatal() *zerolog.Event {
	return Logger.Fatal()
}

func FatalContext(ctx context.Context) *zerolog.Event {
	return appendContextFields(ctx, Fatal())
}
