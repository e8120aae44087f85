package sessions

import (
	"context"
	"strings"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useBlacklist(t *testing.T) *mr.Miniredis {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	SetBlacklistClient(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	t.Cleanup(func() {
		SetBlacklistClient(nil)
		m.Close()
	})
	return m
}

func TestBlacklistKey_IsDigest(t *testing.T) {
	token := "eyJhbGciOiJSUzI1NiJ9.eyJzdWIiOiJhZG1pbiJ9.sig"
	key := BlacklistKey(token)

	assert.True(t, strings.HasPrefix(key, "blacklist:access:"))
	assert.Len(t, strings.TrimPrefix(key, "blacklist:access:"), 64)
	assert.NotContains(t, key, token)
	assert.Equal(t, key, BlacklistKey(token))
	assert.NotEqual(t, key, BlacklistKey(token+"x"))
}

func TestBlacklist_RevokedOIDCTokenExpiresWithTTL(t *testing.T) {
	m := useBlacklist(t)
	ctx := context.Background()
	revoked := "oidc-access-revoked"
	other := "oidc-access-live"

	require.NoError(t, BlacklistAccessToken(ctx, revoked, 90*time.Second))

	assert.Equal(t, []string{BlacklistKey(revoked)}, m.Keys())
	assert.Equal(t, 90*time.Second, m.TTL(BlacklistKey(revoked)))

	ok, err := IsAccessTokenBlacklisted(ctx, revoked)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = IsAccessTokenBlacklisted(ctx, other)
	require.NoError(t, err)
	assert.False(t, ok)

	m.FastForward(91 * time.Second)
	ok, err = IsAccessTokenBlacklisted(ctx, revoked)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBlacklist_LookupErrorSurfaces(t *testing.T) {
	m := useBlacklist(t)
	m.Close()

	_, err := IsAccessTokenBlacklisted(context.Background(), "any")
	assert.Error(t, err)
}

func TestBlacklist_DisabledWithoutClient(t *testing.T) {
	SetBlacklistClient(nil)
	ctx := context.Background()
	require.NoError(t, BlacklistAccessToken(ctx, "oidc-access", time.Minute))
	ok, err := IsAccessTokenBlacklisted(ctx, "oidc-access")
	require.NoError(t, err)
	assert.False(t, ok)
}
