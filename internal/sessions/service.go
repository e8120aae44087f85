package sessions

import (
	"context"
	"time"
)

// Service wraps repository operations with business logic
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

// CreateSession records a login whose access token carries id as its jti.
func (s *Service) CreateSession(ctx context.Context, id, sub string, expiresAt time.Time) error {
	return s.repo.Create(ctx, &Session{
		ID:        id,
		Sub:       sub,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt.UTC(),
	})
}

// Active reports whether the session exists and has not expired.
func (s *Service) Active(ctx context.Context, id string) (bool, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if sess == nil {
		return false, nil
	}
	if time.Now().UTC().After(sess.ExpiresAt) {
		_ = s.repo.Delete(ctx, id)
		return false, nil
	}
	return true, nil
}

// Revoke ends the session; tokens carrying its id stop working.
func (s *Service) Revoke(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
