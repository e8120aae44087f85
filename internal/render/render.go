// Package render turns a document's body into the HTML the editor previews.
package render

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/blogdeck/admin/internal/document"
)

// MoreMarker separates the excerpt from the rest of a post.
const MoreMarker = "<!-- more -->"

// Renderer fills the derived render fields of a document.
type Renderer interface {
	Render(ctx context.Context, path string, d *document.Document) error
}

// Markdown renders .md/.markdown sources with goldmark and sanitises the
// output. Other sources are sanitised as-is.
type Markdown struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

func NewMarkdown() *Markdown {
	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.DefinitionList, extension.Footnote),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		policy: bluemonday.UGCPolicy(),
		strict: bluemonday.StrictPolicy(),
	}
}

// Render reads the markdown from d.Content and replaces it with HTML.
// Excerpt and More are split on MoreMarker.
func (m *Markdown) Render(ctx context.Context, path string, d *document.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src := d.Content
	head, tail, split := strings.Cut(src, MoreMarker)

	full, err := m.toHTML(path, strings.Replace(src, MoreMarker, "", 1))
	if err != nil {
		return err
	}
	d.Content = full
	d.Excerpt, d.More = "", full
	if split {
		if d.Excerpt, err = m.toHTML(path, head); err != nil {
			return err
		}
		if d.More, err = m.toHTML(path, tail); err != nil {
			return err
		}
	}
	d.WordCount = len(strings.Fields(m.strict.Sanitize(full)))
	return nil
}

func (m *Markdown) toHTML(path, src string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdown", ".mkd":
		var buf bytes.Buffer
		if err := m.md.Convert([]byte(src), &buf); err != nil {
			return "", fmt.Errorf("render %s: %w", path, err)
		}
		return m.policy.Sanitize(buf.String()), nil
	}
	return m.policy.Sanitize(src), nil
}
