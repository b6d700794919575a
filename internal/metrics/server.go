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

package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/spf13/viper"

	"github.com/lukasdietrich/briefbote/internal/log"
)

// WireSet provides the standalone metrics listener of the worker.
var WireSet = wire.NewSet(
	OptionsFromViper,
	NewServer,
)

func init() {
	viper.SetDefault("metrics.address", ":9090")
}

type Options struct {
	// Address of the metrics listener. An empty address disables it.
	Address string
}

func OptionsFromViper() Options {
	return Options{
		Address: viper.GetString("metrics.address"),
	}
}

// Server exposes the metrics of processes without an http api.
type Server struct {
	opts Options
}

func NewServer(opts Options) *Server {
	return &Server{opts: opts}
}

// ListenAndServe serves /metrics until ctx is cancelled. It returns immediately when no address
// is configured.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.opts.Address == "" {
		return nil
	}

	listener, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listener)
}

func (s *Server) serve(ctx context.Context, listener net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	server := http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)

	go func() {
		log.InfoContext(ctx).
			Str("address", listener.Addr().String()).
			Msg("metrics listening")

		errs <- server.Serve(listener)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
