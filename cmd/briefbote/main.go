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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lukasdietrich/briefbote/internal/api"
	"github.com/lukasdietrich/briefbote/internal/log"
	"github.com/lukasdietrich/briefbote/internal/tracing"
)

const usageText = `
Usage:
  briefbote [OPTIONS] COMMAND

  Send templated emails on behalf of tenants.

Version:
  %s

Commands:
  api       Start the http api
  worker    Start a dispatch worker
  sweep     Remove expired attachments
  shell     Start an interactive administration shell
  genkey    Print a new secret key

Options:
%s
`

const serviceName = "briefbote"

var (
	// Version is set at compile-time.
	Version = "dev"
)

// secretKeys are masked when printing the configuration.
var secretKeys = map[string]bool{
	"security.secrets.keys": true,
	"storage.database.dsn":  true,
	"queue.url":             true,
}

func main() {
	var configFilename string

	flags := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	flags.StringVarP(&configFilename, "config", "c", "", "Path to a configuration file")
	flags.Usage = printUsage(flags)

	if err := flags.Parse(os.Args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}

		log.Fatal().Err(err).Msg("could not parse flags")
	}

	switch commandName := flags.Arg(1); commandName {
	case "api", "worker", "sweep", "shell":
		setupConfig(configFilename)
		setupLogger()
		printConfig()
		runCommand(commandName)
	case "genkey":
		genkey()
	default:
		flags.Usage()
	}
}

type command interface {
	run(ctx context.Context) error
}

func runCommand(commandName string) {
	var (
		cmd     command
		cleanup func()
		err     error
	)

	info := api.BuildInfo{
		Service: serviceName,
		Version: Version,
	}

	switch commandName {
	case "api":
		cmd, cleanup, err = newAPICommand(info)
	case "worker":
		cmd, cleanup, err = newWorkerCommand()
	case "sweep":
		cmd, cleanup, err = newSweepCommand()
	case "shell":
		cmd, cleanup, err = newShellCommand()
	}

	if err != nil {
		log.Fatal().Err(err).Msg("could not initialize the application")
	}

	tracingOpts := tracing.OptionsFromViper()
	tracingOpts.Version = Version
	stopTracing := tracing.Start(tracingOpts)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = cmd.run(ctx)

	stop()
	stopTracing()
	cleanup()

	if err != nil {
		log.Fatal().Err(err).Msgf("%s failed", commandName)
	}
}

func printUsage(flags *pflag.FlagSet) func() {
	return func() {
		fmt.Fprintf(os.Stderr, usageText,
			Version,
			flags.FlagUsages())
	}
}

func setupLogger() {
	if err := log.Setup(os.Stderr, log.OptionsFromViper()); err != nil {
		log.Fatal().Err(err).Msg("invalid log configuration")
	}
}

func setupConfig(filename string) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatal().Err(err).Msg("could not load .env file")
	}

	viper.SetTypeByDefaultValue(true)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetEnvPrefix("BRIEFBOTE")

	if filename != "" {
		readConfig(filename)
	} else {
		log.Info().Msg("no config file provided. using environment only")
	}
}

func readConfig(filename string) {
	log.Info().Str("filename", filename).Msg("loading configuration")
	viper.SetConfigFile(filename)

	if err := viper.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			log.Warn().Err(err).Msg("configuration file missing")
		} else {
			log.Fatal().Err(err).Msg("could not load configuration")
		}
	}
}

func printConfig() {
	keys := viper.AllKeys()
	sort.Strings(keys)

	for _, key := range keys {
		if secretKeys[key] {
			log.Debug().Str("key", key).Msg("config (masked)")
			continue
		}

		v, _ := json.Marshal(viper.Get(key))
		log.Debug().Str("key", key).RawJSON("value", v).Msg("config")
	}
}
