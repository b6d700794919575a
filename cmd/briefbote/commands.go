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
	"fmt"

	"github.com/lukasdietrich/briefbote/internal/api"
	"github.com/lukasdietrich/briefbote/internal/crypto"
	"github.com/lukasdietrich/briefbote/internal/delivery"
	"github.com/lukasdietrich/briefbote/internal/log"
	"github.com/lukasdietrich/briefbote/internal/metrics"
)

type apiCommand struct {
	Server *api.Server
}

func (a *apiCommand) run(ctx context.Context) error {
	return a.Server.ListenAndServe(log.WithOrigin(ctx, "api"))
}

type workerCommand struct {
	Worker  *delivery.Worker
	Metrics *metrics.Server
}

func (w *workerCommand) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(log.WithOrigin(ctx, "worker"))
	defer cancel()

	metricsErr := make(chan error, 1)

	go func() {
		metricsErr <- w.Metrics.ListenAndServe(ctx)
	}()

	err := w.Worker.Run(ctx)
	cancel()

	if mErr := <-metricsErr; mErr != nil {
		log.Error().Err(mErr).Msg("metrics listener failed")
	}

	return err
}

type sweepCommand struct {
	Sweeper *delivery.Sweeper
}

func (s *sweepCommand) run(ctx context.Context) error {
	_, err := s.Sweeper.Sweep(log.WithOrigin(ctx, "sweep"))
	return err
}

func genkey() {
	key, err := crypto.GenerateSecretKey()
	if err != nil {
		log.Fatal().Err(err).Msg("could not generate key")
	}

	fmt.Println(key)
}
