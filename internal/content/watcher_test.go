package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogdeck/admin/internal/document"
	"github.com/blogdeck/admin/internal/document/repository"
	"github.com/blogdeck/admin/internal/keylock"
	"github.com/blogdeck/admin/internal/render"
)

func newDiskProcessor(t *testing.T) (*Processor, *repository.MemoryRepo, string) {
	t.Helper()
	dir := t.TempDir()
	site := testSite()
	site.SourceDir = dir
	repo := repository.NewMemoryRepo()
	return NewProcessor(afero.NewOsFs(), repo, render.NewMarkdown(), site, keylock.New()), repo, dir
}

func TestHandleEvent(t *testing.T) {
	p, repo, dir := newDiskProcessor(t)
	w := &Watcher{p: p}
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "_posts"), 0o755))
	file := filepath.Join(dir, "_posts", "a.md")
	require.NoError(t, os.WriteFile(file, []byte("---\ntitle: A\n---\n"), 0o644))

	w.handleEvent(ctx, fsnotify.Event{Name: file, Op: fsnotify.Create})
	d, err := repo.FindBySource(ctx, "_posts/a.md")
	require.NoError(t, err)
	assert.Equal(t, "A", d.Title)

	require.NoError(t, os.WriteFile(file, []byte("---\ntitle: B\n---\n"), 0o644))
	w.handleEvent(ctx, fsnotify.Event{Name: file, Op: fsnotify.Write | fsnotify.Chmod})
	d2, err := repo.FindBySource(ctx, "_posts/a.md")
	require.NoError(t, err)
	assert.Equal(t, d.ID, d2.ID)
	assert.Equal(t, "B", d2.Title)

	w.handleEvent(ctx, fsnotify.Event{Name: file, Op: fsnotify.Chmod})

	require.NoError(t, os.Remove(file))
	w.handleEvent(ctx, fsnotify.Event{Name: file, Op: fsnotify.Remove})
	_, err = repo.FindBySource(ctx, "_posts/a.md")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestHandleEvent_IgnoresOutsideAndNonContent(t *testing.T) {
	p, repo, dir := newDiskProcessor(t)
	w := &Watcher{p: p}
	ctx := context.Background()

	img := filepath.Join(dir, "x.png")
	require.NoError(t, os.WriteFile(img, []byte("png"), 0o644))
	w.handleEvent(ctx, fsnotify.Event{Name: img, Op: fsnotify.Create})
	w.handleEvent(ctx, fsnotify.Event{Name: "/elsewhere/a.md", Op: fsnotify.Create})

	docs, err := repo.List(ctx, document.KindPage)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestWatcher_Run(t *testing.T) {
	p, repo, dir := newDiskProcessor(t)
	w, err := NewWatcher(p)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "about"), 0o755))
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "about", "index.md"), []byte("---\ntitle: About\n---\n"), 0o644)
		_, err := repo.FindBySource(context.Background(), "about/index.md")
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
