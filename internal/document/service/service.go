package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/blogdeck/admin/internal/config"
	"github.com/blogdeck/admin/internal/content"
	"github.com/blogdeck/admin/internal/document"
	"github.com/blogdeck/admin/internal/document/repository"
	"github.com/blogdeck/admin/internal/frontmatter"
	"github.com/blogdeck/admin/internal/keylock"
	"github.com/blogdeck/admin/internal/render"
	"github.com/blogdeck/admin/internal/sitefs"
	"github.com/blogdeck/admin/pkg/logger"
)

// Service defines the document operations used by the handler layer and
// the CLI.
type Service interface {
	Get(ctx context.Context, kind document.Kind, id string) (*document.Document, error)
	List(ctx context.Context, kind document.Kind) ([]*document.Document, error)
	Taxonomy(ctx context.Context) (document.Taxonomy, error)
	Create(ctx context.Context, kind document.Kind, title string) (*document.Document, error)
	Update(ctx context.Context, kind document.Kind, id string, changes document.Changes) (*document.Document, error)
	Publish(ctx context.Context, id string) (*document.Document, error)
	Unpublish(ctx context.Context, id string) (*document.Document, error)
	Discard(ctx context.Context, kind document.Kind, id string) (*document.Document, error)
	Rename(ctx context.Context, id, source string) (*document.Document, error)
}

type documentService struct {
	fs        afero.Fs
	repo      repository.Repository
	renderer  render.Renderer
	site      config.SiteConfig
	locks     *keylock.Locks
	processor *content.Processor
	now       func() time.Time
}

// NewService wires the updater over a file system, store and renderer.
// locks must be the same set the source processor uses.
func NewService(fs afero.Fs, repo repository.Repository, renderer render.Renderer, site config.SiteConfig, locks *keylock.Locks) Service {
	return &documentService{
		fs:        fs,
		repo:      repo,
		renderer:  renderer,
		site:      site,
		locks:     locks,
		processor: content.NewProcessor(fs, repo, renderer, site, locks),
		now:       time.Now,
	}
}

func (s *documentService) Get(ctx context.Context, kind document.Kind, id string) (*document.Document, error) {
	d, err := s.repo.Get(ctx, kind, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d.DeriveStatus(), nil
}

func (s *documentService) List(ctx context.Context, kind document.Kind) ([]*document.Document, error) {
	docs, err := s.repo.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		d.DeriveStatus()
	}
	return docs, nil
}

func (s *documentService) Taxonomy(ctx context.Context) (document.Taxonomy, error) {
	var all []*document.Document
	for _, kind := range []document.Kind{document.KindPost, document.KindPage} {
		docs, err := s.repo.List(ctx, kind)
		if err != nil {
			return document.Taxonomy{}, err
		}
		all = append(all, docs...)
	}
	return document.BuildTaxonomy(all, s.site.MetadataKeys()), nil
}

// Create scaffolds a new draft post or page named after title and loads it
// into the store.
func (s *documentService) Create(ctx context.Context, kind document.Kind, title string) (*document.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	slug := frontmatter.Escape(title, frontmatter.CaseMode(s.site.FilenameCase))
	if slug == "" {
		return nil, fmt.Errorf("%w: title %q has no usable characters", ErrInvalidInput, title)
	}

	loc := s.site.Location()
	m := frontmatter.New()
	m.Set("title", title)
	m.Set("date", s.now().In(loc).Truncate(time.Second))

	var source string
	switch kind {
	case document.KindPost:
		source = document.DraftDir + slug + ".md"
		if s.site.Author != "" {
			m.Set("author", s.site.Author)
		}
		m.Set("tags", []string{})
		m.Set("categories", []string{})
		for _, key := range s.site.MetadataKeys() {
			m.Set(key, s.site.Metadata[key])
		}
	case document.KindPage:
		source = slug + "/index.md"
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, kind)
	}

	full := filepath.Join(s.site.SourceDir, filepath.FromSlash(source))
	if ok, _ := sitefs.Exists(s.fs, full); ok {
		return nil, fmt.Errorf("%w: %s", ErrConflict, source)
	}
	raw, err := frontmatter.Stringify(m)
	if err != nil {
		return nil, err
	}
	if err := sitefs.WriteFile(s.fs, full, []byte(raw)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}
	d, err := s.processor.Load(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistFailure, err)
	}
	logger.Infof("created %s %s (%s)", kind, source, d.ID)
	return d, nil
}
