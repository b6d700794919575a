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

package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/lukasdietrich/briefbote/internal/crypto"
	"github.com/lukasdietrich/briefbote/internal/log"
	"github.com/lukasdietrich/briefbote/internal/models"
)

func init() {
	viper.SetDefault("storage.attachments.foldername", "data/attachments")
	viper.SetDefault("storage.attachments.maxsize", "10mb")
	viper.SetDefault("storage.attachments.maxage", 72*time.Hour)
}

type AttachmentsOptions struct {
	Foldername string
	MaxSize    int64
	MaxAge     time.Duration
}

func AttachmentsOptionsFromViper() AttachmentsOptions {
	return AttachmentsOptions{
		Foldername: viper.GetString("storage.attachments.foldername"),
		MaxSize:    int64(viper.GetSizeInBytes("storage.attachments.maxsize")),
		MaxAge:     viper.GetDuration("storage.attachments.maxage"),
	}
}

// Attachments is the shared file area for files referenced by queued emails. Files are grouped
// by tenant and named independently of their original filename.
type Attachments interface {
	// Store writes the content of r to a new file owned by the tenant.
	Store(ctx context.Context, tenantID int64, r io.Reader, filename, contentType string) (models.AttachmentDescriptor, error)
	// Open opens the file of a descriptor. ErrAttachmentMissing is returned if it does not exist.
	Open(ctx context.Context, desc models.AttachmentDescriptor) (afero.File, error)
	// Exists checks if the file of a descriptor exists.
	Exists(ctx context.Context, desc models.AttachmentDescriptor) (bool, error)
	// Delete removes the file of a descriptor. Deleting a missing file is not an error.
	Delete(ctx context.Context, desc models.AttachmentDescriptor) error
	// Owns checks if the descriptor belongs to the tenant.
	Owns(tenantID int64, desc models.AttachmentDescriptor) bool
	// Expired lists all files last modified before the deadline.
	Expired(ctx context.Context, deadline time.Time) ([]models.AttachmentDescriptor, error)
}

type attachments struct {
	fs      afero.Fs
	idGen   crypto.IDGenerator
	maxSize int64
}

func NewAttachments(fs afero.Fs, idGen crypto.IDGenerator, opts AttachmentsOptions) (Attachments, error) {
	if err := fs.MkdirAll(opts.Foldername, 0700); err != nil {
		return nil, err
	}

	return &attachments{
		fs:      afero.NewBasePathFs(fs, opts.Foldername),
		idGen:   idGen,
		maxSize: opts.MaxSize,
	}, nil
}

func (a *attachments) Store(
	ctx context.Context,
	tenantID int64,
	r io.Reader,
	filename, contentType string,
) (models.AttachmentDescriptor, error) {
	var desc models.AttachmentDescriptor

	id, err := a.idGen.GenerateID()
	if err != nil {
		return desc, err
	}

	tenantFolder := strconv.FormatInt(tenantID, 10)
	if err := a.fs.MkdirAll(tenantFolder, 0700); err != nil {
		return desc, err
	}

	desc.Path = path.Join(tenantFolder, id)
	desc.Filename = sanitizeFilename(filename)

	buffered := bufio.NewReader(r)
	desc.ContentType = detectContentType(buffered, desc.Filename, contentType)

	f, err := a.fs.OpenFile(desc.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return desc, err
	}

	log.DebugContext(ctx).
		Str("path", desc.Path).
		Msg("writing attachment")

	var src io.Reader = buffered
	if a.maxSize > 0 {
		src = io.LimitReader(buffered, a.maxSize+1)
	}

	size, err := io.Copy(f, src)
	if err == nil && a.maxSize > 0 && size > a.maxSize {
		err = ErrTooLarge
	}

	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		if removeErr := a.fs.Remove(desc.Path); removeErr != nil {
			log.WarnContext(ctx).
				Err(removeErr).
				Str("path", desc.Path).
				Msg("could not remove partial attachment")
		}

		return models.AttachmentDescriptor{}, err
	}

	return desc, nil
}

func (a *attachments) Open(ctx context.Context, desc models.AttachmentDescriptor) (afero.File, error) {
	if !models.IsCleanRelativePath(desc.Path) {
		return nil, ErrInvalidPath
	}

	f, err := a.fs.Open(desc.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrAttachmentMissing, desc.Path)
		}

		return nil, err
	}

	return f, nil
}

func (a *attachments) Exists(ctx context.Context, desc models.AttachmentDescriptor) (bool, error) {
	if !models.IsCleanRelativePath(desc.Path) {
		return false, ErrInvalidPath
	}

	info, err := a.fs.Stat(desc.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, err
	}

	return info.Mode().IsRegular(), nil
}

func (a *attachments) Delete(ctx context.Context, desc models.AttachmentDescriptor) error {
	if !models.IsCleanRelativePath(desc.Path) {
		return ErrInvalidPath
	}

	log.DebugContext(ctx).
		Str("path", desc.Path).
		Msg("removing attachment")

	if err := a.fs.Remove(desc.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

func (a *attachments) Owns(tenantID int64, desc models.AttachmentDescriptor) bool {
	if !models.IsCleanRelativePath(desc.Path) {
		return false
	}

	folder, _ := path.Split(desc.Path)
	return folder == strconv.FormatInt(tenantID, 10)+"/"
}

func (a *attachments) Expired(ctx context.Context, deadline time.Time) ([]models.AttachmentDescriptor, error) {
	var expired []models.AttachmentDescriptor

	err := afero.Walk(a.fs, "/", func(name string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if info.Mode().IsRegular() && info.ModTime().Before(deadline) {
			relative := strings.TrimPrefix(filepath.ToSlash(name), "/")
			expired = append(expired, models.AttachmentDescriptor{Path: relative})
		}

		return nil
	})

	return expired, err
}

func sanitizeFilename(filename string) string {
	filename = path.Base(filepath.ToSlash(filename))
	filename = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == '"' {
			return -1
		}

		return r
	}, filename)

	if filename == "" || filename == "." || filename == "/" {
		return "attachment"
	}

	return filename
}

func detectContentType(r *bufio.Reader, filename, contentType string) string {
	if contentType != "" {
		return contentType
	}

	if byExtension := mime.TypeByExtension(path.Ext(filename)); byExtension != "" {
		return byExtension
	}

	// Peek returns fewer bytes and an error for short content, which is fine for sniffing.
	head, _ := r.Peek(512)
	return http.DetectContentType(head)
}
