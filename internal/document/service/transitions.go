package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/blogdeck/admin/internal/document"
	"github.com/blogdeck/admin/internal/document/repository"
	"github.com/blogdeck/admin/internal/sitefs"
	"github.com/blogdeck/admin/pkg/logger"
)

// Publish moves a draft from _drafts/ to _posts/.
func (s *documentService) Publish(ctx context.Context, id string) (*document.Document, error) {
	return s.transition(ctx, document.KindPost, id, document.StatusPublished, document.StatusDraft)
}

// Unpublish moves a published post back to _drafts/.
func (s *documentService) Unpublish(ctx context.Context, id string) (*document.Document, error) {
	return s.transition(ctx, document.KindPost, id, document.StatusDraft, document.StatusPublished)
}

// Discard moves a post or page under _discarded/.
func (s *documentService) Discard(ctx context.Context, kind document.Kind, id string) (*document.Document, error) {
	return s.transition(ctx, kind, id, document.StatusDiscarded, document.StatusDraft, document.StatusPublished, document.StatusPage)
}

// transition rebases the document's source into to's directory when its
// current status is one of from.
func (s *documentService) transition(ctx context.Context, kind document.Kind, id string, to document.Status, from ...document.Status) (*document.Document, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	d, err := s.repo.Get(ctx, kind, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	status := document.Classify(d.Kind, d.Source)
	allowed := false
	for _, f := range from {
		if status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s is %s, cannot become %s", ErrInvalidTransition, d.Source, status, to)
	}

	source := document.Rebase(kind, d.Source, to)
	return s.update(ctx, kind, id, document.Changes{Fields: map[string]interface{}{"source": source}})
}

// Rename gives the document a literal new source. The id is looked up as a
// post first, then as a page. A page's old directory is removed when the
// rename leaves it empty.
func (s *documentService) Rename(ctx context.Context, id, source string) (*document.Document, error) {
	if _, err := cleanSource(source); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	kind := document.KindPost
	d, err := s.repo.Get(ctx, kind, id)
	if errors.Is(err, repository.ErrNotFound) {
		kind = document.KindPage
		d, err = s.repo.Get(ctx, kind, id)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	oldDir := filepath.Dir(d.FullSource(s.site.SourceDir))

	out, err := s.update(ctx, kind, id, document.Changes{Fields: map[string]interface{}{"source": source}})
	if err != nil {
		return nil, err
	}
	if kind == document.KindPage && oldDir != filepath.Clean(s.site.SourceDir) {
		if removed, err := sitefs.RemoveIfEmpty(s.fs, oldDir); err != nil {
			logger.Warnf("remove empty dir %s: %v", oldDir, err)
		} else if removed {
			logger.Debugf("removed empty dir %s", oldDir)
		}
	}
	return out, nil
}
