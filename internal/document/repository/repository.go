package repository

import (
	"context"
	"errors"

	"github.com/blogdeck/admin/internal/document"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrMissingID = errors.New("document has no id")
)

// Repository is the content store: it holds the in-memory view of every post
// and page, keyed by id.
type Repository interface {
	Get(ctx context.Context, kind document.Kind, id string) (*document.Document, error)
	FindBySource(ctx context.Context, source string) (*document.Document, error)
	List(ctx context.Context, kind document.Kind) ([]*document.Document, error)
	Save(ctx context.Context, d *document.Document) error
	Delete(ctx context.Context, id string) error
}
