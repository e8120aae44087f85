package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/blogdeck/admin/internal/config"
	"github.com/blogdeck/admin/internal/sessions"
	"github.com/blogdeck/admin/internal/tokens"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *sessions.Service, config.AdminConfig) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := config.AdminConfig{
		Username:     "admin",
		PasswordHash: string(hash),
		Secret:       "test-secret",
		TokenTTL:     time.Hour,
	}
	sSvc := sessions.NewService(sessions.NewMemoryRepository())
	g := gin.New()
	NewAuthHandler(admin, sSvc).Register(g)
	return g, sSvc, admin
}

func login(t *testing.T, g *gin.Engine, user, pass string) *httptest.ResponseRecorder {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, user, pass)
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func TestLogin_Success(t *testing.T) {
	g, sSvc, admin := newAuthRouter(t)

	w := login(t, g, "admin", "hunter2")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AccessToken string            `json:"accessToken"`
		ExpiresIn   int               `json:"expiresIn"`
		User        map[string]string `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3600, resp.ExpiresIn)
	assert.Equal(t, "admin", resp.User["username"])

	claims, err := tokens.ParseAccessToken(admin.Secret, resp.AccessToken)
	require.NoError(t, err)
	active, err := sSvc.Active(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestLogin_Rejected(t *testing.T) {
	g, _, _ := newAuthRouter(t)

	assert.Equal(t, http.StatusUnauthorized, login(t, g, "admin", "wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, login(t, g, "someone", "hunter2").Code)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"admin"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogout_RevokesSession(t *testing.T) {
	g, sSvc, admin := newAuthRouter(t)

	w := login(t, g, "admin", "hunter2")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	w = httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	claims, err := tokens.ParseAccessToken(admin.Secret, resp.AccessToken)
	require.NoError(t, err)
	active, err := sSvc.Active(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestLogout_BlacklistsForeignToken(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	sessions.SetBlacklistClient(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	defer sessions.SetBlacklistClient(nil)

	g, _, _ := newAuthRouter(t)

	// craft an access token with exp in the future
	exp := time.Now().Add(2 * time.Minute).Unix()
	payload := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf(`{"sub":"sub-1","exp":%d}`, exp)))
	access := "hdr." + payload + ".sig"

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	assert.True(t, m.Exists(sessions.BlacklistKey(access)))
}

func TestLogout_MissingToken(t *testing.T) {
	g, _, _ := newAuthRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseExpFromJWT_VariousFormats(t *testing.T) {
	// float64 exp
	extra := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"s1","exp":1700000000}`))
	tok := "hdr." + extra + ".sig"
	expTime, err := parseExpFromJWT(tok)
	if err != nil {
		t.Fatalf("unexpected error from parseExpFromJWT: %v", err)
	}
	if expTime.Unix() != 1700000000 {
		t.Fatalf("unexpected exp time: %v", expTime.Unix())
	}

	// missing exp
	nopayload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"s2"}`))
	notok := "hdr." + nopayload + ".sig"
	if _, err := parseExpFromJWT(notok); err == nil {
		t.Fatalf("expected error for missing exp claim")
	}

	// malformed token
	if _, err := parseExpFromJWT("not.a.jwt"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}
