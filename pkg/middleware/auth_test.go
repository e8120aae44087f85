package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/blogdeck/admin/internal/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// fakeToken implements Token
type fakeToken struct {
	data map[string]interface{}
}

func (t *fakeToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = t.data
		return nil
	}
	return fmt.Errorf("unsupported claims type")
}

// fakeVerifier implements Verifier
type fakeVerifier struct{}

func (f *fakeVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	switch raw {
	case "goodtoken", "black-token":
		return &fakeToken{data: map[string]interface{}{"sub": "user1", "email": "test@example.com"}}, nil
	case "session-token":
		return &fakeToken{data: map[string]interface{}{"sub": "admin", "jti": "s1"}}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func TestAuthMiddleware_NoHeader(t *testing.T) {
	g := gin.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rw := httptest.NewRecorder()

	g.GET("/", AuthMiddleware(&fakeVerifier{}, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAuthMiddleware_InvalidHeader(t *testing.T) {
	g := gin.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "BadHeader")
	rw := httptest.NewRecorder()

	g.GET("/", AuthMiddleware(&fakeVerifier{}, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	g := gin.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer goodtoken")
	rw := httptest.NewRecorder()

	g.GET("/", AuthMiddleware(&fakeVerifier{}, nil), func(c *gin.Context) {
		claims, ok := c.Get("claims")
		require.True(t, ok)
		resp, _ := json.Marshal(gin.H{"claims": claims})
		c.Writer.Write(resp)
	})
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusOK, rw.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	require.Contains(t, got, "claims")
}

func TestAuthMiddleware_RejectsBlacklistedToken(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	sessions.SetBlacklistClient(client)

	// add token to blacklist
	token := "black-token"
	require.NoError(t, sessions.BlacklistAccessToken(context.Background(), token, 5*time.Second))

	g := gin.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rw := httptest.NewRecorder()

	g.GET("/", AuthMiddleware(&fakeVerifier{}, nil), func(c *gin.Context) { c.Status(http.StatusOK) })
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusUnauthorized, rw.Code)
	sessions.SetBlacklistClient(nil)
}

type fakeSessions map[string]bool

func (f fakeSessions) Active(_ context.Context, id string) (bool, error) { return f[id], nil }

func TestAuthMiddleware_SessionChecked(t *testing.T) {
	for name, tc := range map[string]struct {
		sess fakeSessions
		want int
	}{
		"open":    {fakeSessions{"s1": true}, http.StatusOK},
		"revoked": {fakeSessions{}, http.StatusUnauthorized},
	} {
		t.Run(name, func(t *testing.T) {
			g := gin.New()
			g.GET("/", AuthMiddleware(&fakeVerifier{}, tc.sess), func(c *gin.Context) {
				c.String(http.StatusOK, c.GetString("session"))
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer session-token")
			rw := httptest.NewRecorder()
			g.ServeHTTP(rw, req)
			require.Equal(t, tc.want, rw.Code)
			if tc.want == http.StatusOK {
				require.Equal(t, "s1", rw.Body.String())
			}
		})
	}
}

type rejectVerifier struct{}

func (rejectVerifier) Verify(context.Context, string) (Token, error) {
	return nil, fmt.Errorf("rejected")
}

func TestFirstOf(t *testing.T) {
	v := FirstOf(nil, rejectVerifier{}, &fakeVerifier{})
	tok, err := v.Verify(context.Background(), "goodtoken")
	require.NoError(t, err)
	require.NotNil(t, tok)

	_, err = v.Verify(context.Background(), "nope")
	require.Error(t, err)

	_, err = FirstOf().Verify(context.Background(), "goodtoken")
	require.Error(t, err)
}
