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

package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode"
)

// maxMessageIDLength bounds the ledger key.
const maxMessageIDLength = 128

// ErrInvalidJob is returned for payloads that do not describe a dispatchable email.
var ErrInvalidJob = errors.New("job: invalid")

// EmailJob is the unit of work carried by the queue.
type EmailJob struct {
	MessageID string `json:"messageId"`
	TenantID  int64  `json:"tenantId"`
	Email     Email  `json:"email"`
}

type Email struct {
	Recipients   []Address              `json:"recipients"`
	Subject      string                 `json:"subject"`
	TemplateName string                 `json:"templateName"`
	TemplateFile string                 `json:"templateFile,omitempty"`
	TemplateVars map[string]interface{} `json:"templateVars"`
	Attachments  []AttachmentDescriptor `json:"attachments"`
}

// AttachmentDescriptor references a file in the attachment store.
type AttachmentDescriptor struct {
	// Path is relative to the attachment store root.
	Path        string `json:"path"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

// Template returns the file to render, derived from the template name if not set explicitly.
func (e *Email) Template() string {
	if e.TemplateFile != "" {
		return e.TemplateFile
	}

	return e.TemplateName + ".html"
}

// DecodeJob strictly decodes and validates a queue payload.
func DecodeJob(data []byte) (*EmailJob, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	var job EmailJob

	if err := decoder.Decode(&job); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}

	if decoder.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidJob)
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return &job, nil
}

func (j *EmailJob) Validate() error {
	if !isValidMessageID(j.MessageID) {
		return fmt.Errorf("%w: message id %q", ErrInvalidJob, j.MessageID)
	}

	if j.TenantID <= 0 {
		return fmt.Errorf("%w: tenant id %d", ErrInvalidJob, j.TenantID)
	}

	return j.Email.Validate()
}

func (e *Email) Validate() error {
	if len(e.Recipients) == 0 {
		return fmt.Errorf("%w: no recipients", ErrInvalidJob)
	}

	for _, recipient := range e.Recipients {
		if recipient.IsZero() {
			return fmt.Errorf("%w: empty recipient", ErrInvalidJob)
		}
	}

	if strings.TrimSpace(e.Subject) == "" {
		return fmt.Errorf("%w: empty subject", ErrInvalidJob)
	}

	if strings.TrimSpace(e.TemplateName) == "" {
		return fmt.Errorf("%w: empty template name", ErrInvalidJob)
	}

	if !IsCleanRelativePath(e.Template()) {
		return fmt.Errorf("%w: template %q", ErrInvalidJob, e.Template())
	}

	for _, attachment := range e.Attachments {
		if !IsCleanRelativePath(attachment.Path) {
			return fmt.Errorf("%w: attachment path %q", ErrInvalidJob, attachment.Path)
		}
	}

	return nil
}

// IsCleanRelativePath reports whether p is a slash separated relative path that does not escape
// its root.
func IsCleanRelativePath(p string) bool {
	if p == "" || strings.Contains(p, "\\") || path.IsAbs(p) {
		return false
	}

	clean := path.Clean(p)
	return clean == p && clean != "." && clean != ".." && !strings.HasPrefix(clean, "../")
}

// isValidMessageID accepts any short printable identifier. Producers of this module use uuids,
// but the ledger only relies on the id being stable.
func isValidMessageID(id string) bool {
	if id == "" || len(id) > maxMessageIDLength {
		return false
	}

	for _, r := range id {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return false
		}
	}

	return true
}
