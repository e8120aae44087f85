// Package content loads post and page files from the site's source directory
// into the content store and keeps the store in step with the disk.
package content

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/blogdeck/admin/internal/config"
	"github.com/blogdeck/admin/internal/document"
	"github.com/blogdeck/admin/internal/document/repository"
	"github.com/blogdeck/admin/internal/frontmatter"
	"github.com/blogdeck/admin/internal/keylock"
	"github.com/blogdeck/admin/internal/render"
	"github.com/blogdeck/admin/internal/sitefs"
	"github.com/blogdeck/admin/pkg/logger"
	"github.com/blogdeck/admin/pkg/metrics"
)

var contentExts = map[string]bool{
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
}

// KindOf reports which collection a source path belongs to. Files in
// _posts, _drafts and _discarded are posts; other content files outside
// underscore or dot directories are pages.
func KindOf(source string) (document.Kind, bool) {
	source = strings.TrimPrefix(filepath.ToSlash(source), "/")
	if !contentExts[strings.ToLower(path.Ext(source))] {
		return "", false
	}
	for _, dir := range []string{document.PostDir, document.DraftDir, document.DiscardedDir} {
		if strings.HasPrefix(source, dir) {
			return document.KindPost, true
		}
	}
	for _, seg := range strings.Split(source, "/") {
		if strings.HasPrefix(seg, "_") || strings.HasPrefix(seg, ".") {
			return "", false
		}
	}
	return document.KindPage, true
}

// Processor turns source files into store records.
type Processor struct {
	fs       afero.Fs
	repo     repository.Repository
	renderer render.Renderer
	site     config.SiteConfig
	locks    *keylock.Locks
}

func NewProcessor(fs afero.Fs, repo repository.Repository, renderer render.Renderer, site config.SiteConfig, locks *keylock.Locks) *Processor {
	return &Processor{fs: fs, repo: repo, renderer: renderer, site: site, locks: locks}
}

// Site returns the site configuration the processor was built with.
func (p *Processor) Site() config.SiteConfig { return p.site }

// Load reads source from disk and saves the resulting record. An existing
// record for the same source keeps its id and kind.
func (p *Processor) Load(ctx context.Context, source string) (*document.Document, error) {
	source = filepath.ToSlash(source)
	kind, ok := KindOf(source)
	if !ok {
		return nil, fmt.Errorf("not a content file: %s", source)
	}

	// held across find and save so concurrent loads of a new file agree on one id
	unlockSrc := p.locks.Lock("src:" + source)
	defer unlockSrc()

	id := uuid.NewString()
	existing, err := p.repo.FindBySource(ctx, source)
	switch {
	case err == nil:
		id, kind = existing.ID, existing.Kind
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("find %s: %w", source, err)
	}

	unlock := p.locks.Lock(id)
	defer unlock()

	full := filepath.Join(p.site.SourceDir, filepath.FromSlash(source))
	info, err := p.fs.Stat(full)
	if err != nil {
		metrics.SourceReloads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("stat %s: %w", source, err)
	}
	raw, err := afero.ReadFile(p.fs, full)
	if err != nil {
		metrics.SourceReloads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read %s: %w", source, err)
	}

	d, err := p.Build(id, kind, source, string(raw), info.ModTime())
	if err != nil {
		metrics.SourceReloads.WithLabelValues("error").Inc()
		return nil, err
	}
	if err := p.renderer.Render(ctx, full, d); err != nil {
		logger.Warnf("render %s: %v", source, err)
	}
	if err := p.repo.Save(ctx, d); err != nil {
		metrics.SourceReloads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("save %s: %w", source, err)
	}
	metrics.SourceReloads.WithLabelValues("loaded").Inc()
	logger.Debugf("loaded %s %s (%s)", kind, source, id)
	return d, nil
}

// Build parses raw into a record without touching the store. Content holds
// the unrendered body.
func (p *Processor) Build(id string, kind document.Kind, source, raw string, modTime time.Time) (*document.Document, error) {
	loc := p.site.Location()
	m, err := frontmatter.Parse(raw, loc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}

	d := &document.Document{
		ID:     id,
		Kind:   kind,
		Source: source,
		Raw:    raw,
		Title:  m.String("title"),
		Author: m.String("author"),
		Layout: strings.ToLower(m.String("layout")),
		Slug:   m.String("slug"),
		Body:   m.Body,
	}
	d.Content = d.Body

	date, _ := m.Get("date")
	if t, ok := frontmatter.ParseDate(date, loc); ok {
		d.Date = t
	} else {
		d.Date = modTime.In(loc)
	}
	updated, _ := m.Get("updated")
	if t, ok := frontmatter.ParseDate(updated, loc); ok {
		d.Updated = t
	} else {
		d.Updated = modTime.In(loc)
	}

	if d.Layout == "" {
		d.Layout = p.site.DefaultLayout
		if kind == document.KindPage {
			d.Layout = "page"
		}
	}
	if d.Slug == "" {
		if kind == document.KindPost {
			d.Slug = frontmatter.Escape(path.Base(sitefs.TrimExt(source)), frontmatter.CaseMode(p.site.FilenameCase))
		} else {
			d.Slug = sitefs.TrimExt(source)
		}
	}

	d.SetTags(m.Strings("tags"))
	d.SetCategories(m.Strings("categories"))
	for _, key := range p.site.MetadataKeys() {
		if v, ok := m.Get(key); ok {
			if d.Meta == nil {
				d.Meta = map[string]interface{}{}
			}
			d.Meta[key] = v
		}
	}
	d.DeriveStatus()
	return d, nil
}

// Remove drops the record whose file at source disappeared. Unknown sources
// are ignored.
func (p *Processor) Remove(ctx context.Context, source string) error {
	source = filepath.ToSlash(source)
	d, err := p.repo.FindBySource(ctx, source)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find %s: %w", source, err)
	}

	unlock := p.locks.Lock(d.ID)
	defer unlock()

	// The record may have moved while we waited for the lock.
	cur, err := p.repo.Get(ctx, d.Kind, d.ID)
	if err != nil || cur.Source != source {
		return nil
	}
	if err := p.repo.Delete(ctx, d.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("delete %s: %w", source, err)
	}
	metrics.SourceReloads.WithLabelValues("removed").Inc()
	logger.Debugf("removed %s (%s)", source, d.ID)
	return nil
}

// Scan loads every content file under the source directory and drops
// records whose file is gone. It returns the number of files loaded.
func (p *Processor) Scan(ctx context.Context) (int, error) {
	seen := map[string]bool{}
	loaded := 0
	err := afero.Walk(p.fs, p.site.SourceDir, func(full string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && full == p.site.SourceDir {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.IsDir() {
			if full != p.site.SourceDir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(p.site.SourceDir, full)
		if err != nil {
			return err
		}
		source := filepath.ToSlash(rel)
		if _, ok := KindOf(source); !ok {
			return nil
		}
		seen[source] = true
		if _, err := p.Load(ctx, source); err != nil {
			logger.Warnf("scan: %v", err)
			return nil
		}
		loaded++
		return nil
	})
	if err != nil {
		return loaded, fmt.Errorf("scan %s: %w", p.site.SourceDir, err)
	}

	for _, kind := range []document.Kind{document.KindPost, document.KindPage} {
		docs, err := p.repo.List(ctx, kind)
		if err != nil {
			return loaded, fmt.Errorf("list %s: %w", kind, err)
		}
		for _, d := range docs {
			if !seen[d.Source] {
				if err := p.Remove(ctx, d.Source); err != nil {
					logger.Warnf("scan: %v", err)
				}
			}
		}
	}
	logger.Infof("scanned %s: %d documents", p.site.SourceDir, loaded)
	return loaded, nil
}
