package content

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"github.com/blogdeck/admin/pkg/logger"
)

// Watcher reloads records when files under the source directory change.
// fsnotify is not recursive, so every directory is added on its own and new
// directories are picked up as they appear.
type Watcher struct {
	p *Processor
	w *fsnotify.Watcher
}

func NewWatcher(p *Processor) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	watcher := &Watcher{p: p, w: w}
	if err := watcher.addTree(p.site.SourceDir); err != nil {
		w.Close()
		return nil, err
	}
	return watcher, nil
}

func (w *Watcher) addTree(root string) error {
	return afero.Walk(w.p.fs, root, func(full string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if full != root && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.w.Add(full); err != nil {
			return fmt.Errorf("watch %s: %w", full, err)
		}
		return nil
	})
}

// Run processes events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.w.Close()
	logger.Infof("watching %s", w.p.site.SourceDir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("watcher: %v", err)
		}
	}
}

// handleEvent applies one fsnotify event to the store.
func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	rel, err := filepath.Rel(w.p.site.SourceDir, ev.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	source := filepath.ToSlash(rel)

	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		info, err := w.p.fs.Stat(ev.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if ev.Has(fsnotify.Create) {
				if err := w.addTree(ev.Name); err != nil {
					logger.Warnf("watcher: %v", err)
				}
				w.loadTree(ctx, ev.Name)
			}
			return
		}
		if _, ok := KindOf(source); !ok {
			return
		}
		if _, err := w.p.Load(ctx, source); err != nil {
			logger.Warnf("watcher: %v", err)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		if _, ok := KindOf(source); !ok {
			return
		}
		if err := w.p.Remove(ctx, source); err != nil {
			logger.Warnf("watcher: %v", err)
		}
	}
}

// loadTree loads files in a directory that appeared before it was watched,
// such as an asset directory moved along with its post.
func (w *Watcher) loadTree(ctx context.Context, dir string) {
	_ = afero.Walk(w.p.fs, dir, func(full string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.p.site.SourceDir, full)
		if err != nil {
			return nil
		}
		source := filepath.ToSlash(rel)
		if _, ok := KindOf(source); ok {
			if _, err := w.p.Load(ctx, source); err != nil {
				logger.Warnf("watcher: %v", err)
			}
		}
		return nil
	})
}
