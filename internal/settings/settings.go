// Package settings reads and writes the admin panel's own options file,
// _admin-config.yml in the site's base directory.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/blogdeck/admin/internal/sitefs"
	"github.com/blogdeck/admin/pkg/logger"
)

const FileName = "_admin-config.yml"

var ErrMissingName = errors.New("no name given")

// Store guards reads and writes of the settings file.
type Store struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

func NewStore(fs afero.Fs, baseDir string) *Store {
	return &Store{fs: fs, path: filepath.Join(baseDir, FileName)}
}

// Load returns the settings, creating an empty file when none exists.
func (s *Store) Load() (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (map[string]interface{}, error) {
	b, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debugf("admin config not found, creating %s", s.path)
		if err := sitefs.WriteFile(s.fs, s.path, nil); err != nil {
			return nil, fmt.Errorf("create settings: %w", err)
		}
		return map[string]interface{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	out := map[string]interface{}{}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	if out == nil {
		out = map[string]interface{}{}
	}
	return out, nil
}

// Set stores value under options.<name> and deep-merges added into the
// whole settings tree. The saved settings are returned.
func (s *Store) Set(name string, value interface{}, added map[string]interface{}) (map[string]interface{}, error) {
	if name == "" {
		return nil, ErrMissingName
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.load()
	if err != nil {
		return nil, err
	}
	opts, ok := cur["options"].(map[string]interface{})
	if !ok {
		opts = map[string]interface{}{}
		cur["options"] = opts
	}
	opts[name] = value
	if added != nil {
		DeepMerge(cur, added)
	}

	b, err := yaml.Marshal(cur)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	if err := sitefs.WriteFile(s.fs, s.path, b); err != nil {
		return nil, fmt.Errorf("write settings: %w", err)
	}
	logger.Debugf("set %s = %v", name, value)
	return cur, nil
}

// DeepMerge copies src into dst. Nested maps are merged key by key; any
// other value replaces what dst holds.
func DeepMerge(dst, src map[string]interface{}) {
	for k, v := range src {
		sv, srcIsMap := v.(map[string]interface{})
		dv, dstIsMap := dst[k].(map[string]interface{})
		if srcIsMap && dstIsMap {
			DeepMerge(dv, sv)
			continue
		}
		if srcIsMap {
			cp := map[string]interface{}{}
			DeepMerge(cp, sv)
			dst[k] = cp
			continue
		}
		dst[k] = v
	}
}

// Options returns the options section, or an empty map.
func Options(settings map[string]interface{}) map[string]interface{} {
	if o, ok := settings["options"].(map[string]interface{}); ok {
		return o
	}
	return map[string]interface{}{}
}
