package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-32-bytes-should-be-long-enough"

func TestGenerateAccessToken_ValidAndClaims(t *testing.T) {
	tok, claims, err := GenerateAccessToken(secret, "admin", 2*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, claims.ID)

	parsed, err := ParseAccessToken(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "admin", parsed.Subject)
	assert.Equal(t, claims.ID, parsed.ID)
}

func TestGenerateAccessToken_Expiry(t *testing.T) {
	tok, _, err := GenerateAccessToken(secret, "admin", -time.Minute)
	require.NoError(t, err)
	_, err = ParseAccessToken(secret, tok)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseToken_WrongSecretFails(t *testing.T) {
	tok, _, err := GenerateAccessToken(secret, "admin", time.Minute)
	require.NoError(t, err)
	_, err = ParseAccessToken("another-secret-32-bytes-longgggg", tok)
	require.Error(t, err)
}

func TestGenerateAccessToken_RequiresSecret(t *testing.T) {
	_, _, err := GenerateAccessToken("", "admin", time.Minute)
	require.Error(t, err)
}

func TestVerifier_ExposesClaims(t *testing.T) {
	tok, claims, err := GenerateAccessToken(secret, "admin", time.Minute)
	require.NoError(t, err)

	vt, err := NewVerifier(secret).Verify(context.Background(), tok)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, vt.Claims(&m))
	assert.Equal(t, "admin", m["sub"])
	assert.Equal(t, claims.ID, m["jti"])

	_, err = NewVerifier(secret).Verify(context.Background(), "garbage")
	require.Error(t, err)
}
