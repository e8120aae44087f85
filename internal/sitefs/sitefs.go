// Package sitefs holds the file operations the admin service performs on a
// site's source tree. Everything goes through an afero.Fs so the same code
// runs against the OS in production and an in-memory tree in tests.
package sitefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// WriteFile writes data atomically: a sibling temp file is written and then
// renamed over path. Parent directories are created as needed.
func WriteFile(fs afero.Fs, path string, data []byte) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("sitefs: mkdir %s: %w", filepath.Dir(path), err)
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("sitefs: write tmp: %w", err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("sitefs: rename: %w", err)
	}
	return nil
}

func Exists(fs afero.Fs, path string) (bool, error) {
	return afero.Exists(fs, path)
}

// TrimExt strips the file extension, giving the asset directory path that
// belongs to a post file.
func TrimExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// CopyDir recursively copies src into dst.
func CopyDir(fs afero.Fs, src, dst string) error {
	return afero.Walk(fs, src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return fs.MkdirAll(target, 0o755)
		}
		return copyFile(fs, p, target, info.Mode())
	})
}

func copyFile(fs afero.Fs, src, dst string, mode os.FileMode) error {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ErrNested is returned when a move would place a directory inside itself.
var ErrNested = errors.New("sitefs: destination is inside source")

// Within reports whether p is dir or lies below it.
func Within(dir, p string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(p))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// MoveDir copies src to dst and then removes src. dst must not lie inside src.
func MoveDir(fs afero.Fs, src, dst string) error {
	if Within(src, dst) {
		return fmt.Errorf("%w: %s -> %s", ErrNested, src, dst)
	}
	if err := CopyDir(fs, src, dst); err != nil {
		return fmt.Errorf("sitefs: copy %s: %w", src, err)
	}
	if err := fs.RemoveAll(src); err != nil {
		return fmt.Errorf("sitefs: remove %s: %w", src, err)
	}
	return nil
}

// Move moves a file or directory, creating dst's parent as needed.
func Move(fs afero.Fs, src, dst string) error {
	info, err := fs.Stat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return MoveDir(fs, src, dst)
	}
	if err := fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := copyFile(fs, src, dst, info.Mode()); err != nil {
		return fmt.Errorf("sitefs: copy %s: %w", src, err)
	}
	return fs.Remove(src)
}

// RemoveIfEmpty deletes dir when it exists and has no entries.
func RemoveIfEmpty(fs afero.Fs, dir string) (bool, error) {
	ok, err := afero.DirExists(fs, dir)
	if err != nil || !ok {
		return false, err
	}
	empty, err := afero.IsEmpty(fs, dir)
	if err != nil || !empty {
		return false, err
	}
	return true, fs.Remove(dir)
}
