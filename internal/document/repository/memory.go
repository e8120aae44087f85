package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/blogdeck/admin/internal/document"
)

// MemoryRepo keeps documents in process memory. Records are copied on the way
// in and out, so callers only change stored state through Save.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*document.Document
}

var _ Repository = (*MemoryRepo)(nil)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*document.Document)}
}

func (m *MemoryRepo) Get(_ context.Context, kind document.Kind, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[id]; ok && d.Kind == kind {
		return d.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) FindBySource(_ context.Context, source string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.store {
		if d.Source == source {
			return d.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// List returns documents of kind, newest first.
func (m *MemoryRepo) List(_ context.Context, kind document.Kind) ([]*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*document.Document, 0, len(m.store))
	for _, d := range m.store {
		if d.Kind == kind {
			out = append(out, d.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].Source < out[j].Source
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (m *MemoryRepo) Save(_ context.Context, d *document.Document) error {
	if d.ID == "" {
		return ErrMissingID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[d.ID] = d.Clone()
	return nil
}

func (m *MemoryRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}
