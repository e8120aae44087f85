package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestService_CreateActiveRevoke(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	require.NoError(t, svc.CreateSession(ctx, "jti-1", "admin", time.Now().Add(time.Minute)))
	ok, err := svc.Active(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, svc.Revoke(ctx, "jti-1"))
	ok, err = svc.Active(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestService_ExpiredSessionInactive(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	require.NoError(t, svc.CreateSession(ctx, "old", "admin", time.Now().Add(-time.Minute)))
	ok, err := svc.Active(ctx, "old")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = svc.Active(ctx, "unknown")
	require.NoError(t, err)
	require.False(t, ok)
}
