package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/blogdeck/admin/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "source")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "_drafts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "_drafts", "hello.md"), []byte("---\ntitle: Hello\ndate: 2024-01-02 03:04:05\n---\nfirst post\n"), 0o644))
	return &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		Site: config.SiteConfig{
			BaseDir:       dir,
			SourceDir:     src,
			Root:          "/",
			DefaultLayout: "post",
			Timezone:      "UTC",
			Metadata:      map[string]interface{}{},
		},
	}
}

func useConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	prev := openApp
	openApp = func(ctx context.Context) (*app, error) { return newApp(ctx, cfg) }
	t.Cleanup(func() { openApp = prev })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := []string{}
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "list")
	assert.Contains(t, names, "publish")
	assert.Contains(t, names, "unpublish")
}

func TestListAndPublish(t *testing.T) {
	cfg := testConfig(t)
	useConfig(t, cfg)

	out, err := execute(t, "list", "posts")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "draft")
	assert.Contains(t, out, "Total: 1")

	out, err = execute(t, "publish", "_drafts/hello.md")
	require.NoError(t, err)
	assert.Contains(t, out, "_posts/hello.md")
	_, err = os.Stat(filepath.Join(cfg.Site.SourceDir, "_posts", "hello.md"))
	require.NoError(t, err)

	_, err = execute(t, "publish", "_posts/hello.md")
	require.Error(t, err)

	_, err = execute(t, "unpublish", "_posts/hello.md")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.Site.SourceDir, "_drafts", "hello.md"))
	require.NoError(t, err)

	out, err = execute(t, "list", "pages")
	require.NoError(t, err)
	assert.Contains(t, out, "No Pages found")
}

func TestListRejectsUnknownKind(t *testing.T) {
	useConfig(t, testConfig(t))
	_, err := execute(t, "list", "comments")
	require.Error(t, err)
}

func TestRouter_AuthFlow(t *testing.T) {
	cfg := testConfig(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg.Admin = config.AdminConfig{Username: "admin", PasswordHash: string(hash), Secret: "s3cret", TokenTTL: time.Hour}

	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	require.NoError(t, err)
	defer a.Close(ctx)
	r, err := newRouter(ctx, a)
	require.NoError(t, err)

	do := func(method, path, body, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/ready", "", "").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/swagger/doc.json", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/admin/api/posts/list", "", "").Code)

	w := do(http.MethodPost, "/admin/api/login", `{"username":"admin","password":"pw"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = do(http.MethodGet, "/admin/api/posts/list", "", login.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hello")

	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/admin/api/settings/list", "", login.AccessToken).Code)

	require.Equal(t, http.StatusOK, do(http.MethodPost, "/admin/api/logout", "", login.AccessToken).Code)
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/admin/api/posts/list", "", login.AccessToken).Code)

	w = do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "blogdeck_source_reloads_total")
}

func TestRouter_OpenWithoutAdmin(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	require.NoError(t, err)
	defer a.Close(ctx)
	r, err := newRouter(ctx, a)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/api/tags-categories-and-metadata", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
