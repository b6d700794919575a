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
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/ext"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/lukasdietrich/briefbote/internal/log"
	"github.com/lukasdietrich/briefbote/internal/models"
	"github.com/lukasdietrich/briefbote/internal/tenants"
)

const (
	apiKeyHeader = "X-API-KEY"
	tenantKey    = "tenant"
)

// authenticate resolves the tenant of the api key. Unknown keys and inactive tenants are
// rejected, so jobs of inactive tenants never reach the queue.
func (s *Server) authenticate(c *gin.Context) {
	ctx := c.Request.Context()

	tenant, err := s.directory.ResolveByCredential(ctx, c.GetHeader(apiKeyHeader))
	if err != nil {
		if errors.Is(err, tenants.ErrTenantNotFound) {
			abortWithError(c, http.StatusForbidden, "invalid api key")
			return
		}

		log.ErrorContext(ctx).Err(err).Msg("could not resolve api key")
		abortWithError(c, http.StatusInternalServerError, "internal error")
		return
	}

	if !tenant.Active {
		abortWithError(c, http.StatusForbidden, "tenant is inactive")
		return
	}

	c.Set(tenantKey, tenant)
	c.Request = c.Request.WithContext(log.WithTenant(ctx, tenant.ID))
	c.Next()
}

func tenantFromContext(c *gin.Context) *models.TenantEntity {
	value, _ := c.Get(tenantKey)
	tenant, _ := value.(*models.TenantEntity)
	return tenant
}

func traceRequests(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := tracer.StartSpanFromContext(c.Request.Context(), "http.request",
			tracer.ServiceName(service),
			tracer.SpanType(ext.SpanTypeWeb),
			tracer.Tag(ext.HTTPMethod, c.Request.Method),
			tracer.Tag(ext.HTTPURL, c.Request.URL.Path))

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		span.SetTag(ext.ResourceName, c.Request.Method+" "+c.FullPath())
		span.SetTag(ext.HTTPCode, c.Writer.Status())
		span.Finish()
	}
}

func logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := log.DebugContext(c.Request.Context())
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = log.WarnContext(c.Request.Context())
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	}
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
