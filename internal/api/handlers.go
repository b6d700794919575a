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
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lukasdietrich/briefbote/internal/log"
	"github.com/lukasdietrich/briefbote/internal/metrics"
	"github.com/lukasdietrich/briefbote/internal/models"
	"github.com/lukasdietrich/briefbote/internal/queue"
	"github.com/lukasdietrich/briefbote/internal/storage"
)

type sendEmailRequest struct {
	Recipients   []models.Address              `json:"recipients"`
	Subject      string                        `json:"subject"`
	TemplateName string                        `json:"templateName"`
	TemplateFile string                        `json:"templateFile"`
	TemplateVars map[string]interface{}        `json:"templateVars"`
	Attachments  []models.AttachmentDescriptor `json:"attachments"`
}

type sendEmailResponse struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

type emailStatusResponse struct {
	MessageID string               `json:"messageId"`
	Status    models.MessageStatus `json:"status"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": s.info.Service,
		"version": s.info.Version,
	})
}

func (s *Server) metrics() gin.HandlerFunc {
	return gin.WrapH(metrics.Handler())
}

func (s *Server) uploadAttachment(c *gin.Context) {
	ctx := c.Request.Context()
	tenant := tenantFromContext(c)

	header, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "missing multipart field \"file\"")
		return
	}

	f, err := header.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "could not read upload")
		return
	}

	defer f.Close()

	// Most clients send the generic type for every file part. Detecting it is more useful.
	contentType := header.Header.Get("Content-Type")
	if contentType == "application/octet-stream" {
		contentType = ""
	}

	desc, err := s.attachments.Store(ctx, tenant.ID, f, header.Filename, contentType)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			abortWithError(c, http.StatusRequestEntityTooLarge, "attachment too large")
			return
		}

		log.ErrorContext(ctx).Err(err).Msg("could not store attachment")
		abortWithError(c, http.StatusInternalServerError, "internal error")
		return
	}

	log.InfoContext(ctx).
		Str("path", desc.Path).
		Str("contentType", desc.ContentType).
		Msg("attachment stored")

	c.JSON(http.StatusCreated, desc)
}

func (s *Server) sendEmail(c *gin.Context) {
	ctx := c.Request.Context()
	tenant := tenantFromContext(c)

	var req sendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	email := models.Email{
		Recipients:   req.Recipients,
		Subject:      req.Subject,
		TemplateName: req.TemplateName,
		TemplateFile: req.TemplateFile,
		TemplateVars: req.TemplateVars,
		Attachments:  req.Attachments,
	}

	if err := email.Validate(); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	for _, desc := range email.Attachments {
		if !s.attachments.Owns(tenant.ID, desc) {
			abortWithError(c, http.StatusBadRequest, "unknown attachment "+strconv.Quote(desc.Path))
			return
		}

		exists, err := s.attachments.Exists(ctx, desc)
		if err != nil {
			log.ErrorContext(ctx).Err(err).Msg("could not check attachment")
			abortWithError(c, http.StatusInternalServerError, "internal error")
			return
		}

		if !exists {
			abortWithError(c, http.StatusBadRequest, "unknown attachment "+strconv.Quote(desc.Path))
			return
		}
	}

	messageID, err := s.enqueuer.Enqueue(ctx, tenant.ID, email)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidJob):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, queue.ErrQueueUnavailable):
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(s.opts.RetryAfter.Seconds()))))
			abortWithError(c, http.StatusServiceUnavailable, "queue unavailable, try again later")
		default:
			log.ErrorContext(ctx).Err(err).Msg("could not enqueue email")
			abortWithError(c, http.StatusInternalServerError, "internal error")
		}

		return
	}

	c.JSON(http.StatusAccepted, sendEmailResponse{
		MessageID: messageID,
		Status:    "queued",
	})
}

func (s *Server) emailStatus(c *gin.Context) {
	ctx := c.Request.Context()
	tenant := tenantFromContext(c)
	messageID := c.Param("id")

	status, err := s.ledger.Status(ctx, tenant.ID, messageID)
	if err != nil {
		log.ErrorContext(ctx).Err(err).Msg("could not query ledger")
		abortWithError(c, http.StatusInternalServerError, "internal error")
		return
	}

	c.JSON(http.StatusOK, emailStatusResponse{
		MessageID: messageID,
		Status:    status,
	})
}
