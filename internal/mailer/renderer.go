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

package mailer

import (
	"bytes"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"os"
	"path"
	"strconv"
	"strings"
	texttemplate "text/template"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/lukasdietrich/briefbote/internal/models"
)

// ErrTemplate is returned for missing or broken templates. Rendering the same template again
// would fail the same way.
var ErrTemplate = errors.New("mailer: template error")

func init() {
	viper.SetDefault("mailer.templates.foldername", "templates")
}

type RendererOptions struct {
	Foldername string
}

func RendererOptionsFromViper() RendererOptions {
	return RendererOptions{
		Foldername: viper.GetString("mailer.templates.foldername"),
	}
}

// markdown escapes raw html contained in templates and variables.
var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Renderer renders email bodies from template files. A tenant may override any template by
// placing a file with the same name in a folder named after its id.
type Renderer struct {
	fs afero.Fs
}

func NewRenderer(fs afero.Fs, opts RendererOptions) *Renderer {
	return &Renderer{
		fs: afero.NewReadOnlyFs(afero.NewBasePathFs(fs, opts.Foldername)),
	}
}

// Render renders the template file with vars into html. Files ending in ".md" are rendered as
// markdown after variable substitution, everything else is an html template.
func (r *Renderer) Render(tenantID int64, file string, vars map[string]interface{}) (string, error) {
	if !models.IsCleanRelativePath(file) {
		return "", fmt.Errorf("%w: invalid template path %q", ErrTemplate, file)
	}

	source, err := r.lookup(tenantID, file)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer

	switch strings.ToLower(path.Ext(file)) {
	case ".md", ".markdown":
		err = renderMarkdown(&buf, file, source, vars)
	default:
		err = renderHTML(&buf, file, source, vars)
	}

	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplate, err)
	}

	return buf.String(), nil
}

func (r *Renderer) lookup(tenantID int64, file string) (string, error) {
	candidates := []string{
		path.Join(strconv.FormatInt(tenantID, 10), file),
		file,
	}

	for _, candidate := range candidates {
		source, err := afero.ReadFile(r.fs, candidate)
		if err == nil {
			return string(source), nil
		}

		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}

	return "", fmt.Errorf("%w: template %q not found", ErrTemplate, file)
}

func renderHTML(buf *bytes.Buffer, name, source string, vars map[string]interface{}) error {
	t, err := htmltemplate.New(name).Parse(source)
	if err != nil {
		return err
	}

	return t.Execute(buf, vars)
}

func renderMarkdown(buf *bytes.Buffer, name, source string, vars map[string]interface{}) error {
	t, err := texttemplate.New(name).Parse(source)
	if err != nil {
		return err
	}

	var md bytes.Buffer
	if err := t.Execute(&md, vars); err != nil {
		return err
	}

	return markdown.Convert(md.Bytes(), buf)
}
