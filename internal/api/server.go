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

package api

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/spf13/viper"

	"github.com/lukasdietrich/briefbote/internal/delivery"
	"github.com/lukasdietrich/briefbote/internal/log"
	"github.com/lukasdietrich/briefbote/internal/models"
	"github.com/lukasdietrich/briefbote/internal/queue"
	"github.com/lukasdietrich/briefbote/internal/storage"
	"github.com/lukasdietrich/briefbote/internal/tenants"
)

// WireSet provides the http api.
var WireSet = wire.NewSet(
	OptionsFromViper,
	NewServer,
	wire.Bind(new(Enqueuer), new(*queue.Producer)),
)

func init() {
	viper.SetDefault("api.address", ":8080")
	viper.SetDefault("api.shutdowntimeout", 15*time.Second)
	viper.SetDefault("api.retryafter", 5*time.Second)
}

type Options struct {
	Address         string
	ShutdownTimeout time.Duration
	// RetryAfter is suggested to clients when the queue is unavailable.
	RetryAfter time.Duration
}

func OptionsFromViper() Options {
	return Options{
		Address:         viper.GetString("api.address"),
		ShutdownTimeout: viper.GetDuration("api.shutdowntimeout"),
		RetryAfter:      viper.GetDuration("api.retryafter"),
	}
}

// BuildInfo is reported by the health endpoint.
type BuildInfo struct {
	Service string
	Version string
}

// Enqueuer hands email jobs to the durable queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, tenantID int64, email models.Email) (string, error)
}

// Server is the ingestion api. It accepts emails and attachments of authenticated tenants and
// reports the processing status of enqueued emails.
type Server struct {
	opts        Options
	info        BuildInfo
	directory   *tenants.Directory
	enqueuer    Enqueuer
	ledger      *delivery.Ledger
	attachments storage.Attachments
	tlsConfig   *tls.Config
}

func NewServer(
	opts Options,
	info BuildInfo,
	directory *tenants.Directory,
	enqueuer Enqueuer,
	ledger *delivery.Ledger,
	attachments storage.Attachments,
	tlsConfig *tls.Config,
) *Server {
	return &Server{
		opts:        opts,
		info:        info,
		directory:   directory,
		enqueuer:    enqueuer,
		ledger:      ledger,
		attachments: attachments,
		tlsConfig:   tlsConfig,
	}
}

// Handler returns the routes of the api.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), traceRequests(s.info.Service), logRequests())

	r.GET("/", s.health)
	r.GET("/metrics", s.metrics())

	v1 := r.Group("/v1", s.authenticate)
	{
		v1.POST("/attachments", s.uploadAttachment)
		v1.POST("/emails", s.sendEmail)
		v1.GET("/emails/:id", s.emailStatus)
	}

	return r
}

// ListenAndServe serves the api until ctx is cancelled and then shuts down gracefully. The api is
// served over tls, if a tls config is present.
func (s *Server) ListenAndServe(ctx context.Context) error {
	server := http.Server{
		Addr:              s.opts.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig:         s.tlsConfig,
	}

	errs := make(chan error, 1)

	go func() {
		log.Info().
			Str("address", s.opts.Address).
			Bool("tls", s.tlsConfig != nil).
			Msg("api listening")

		if s.tlsConfig != nil {
			errs <- server.ListenAndServeTLS("", "")
		} else {
			errs <- server.ListenAndServe()
		}
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down api")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
