// Package images stores images pasted into the editor under the site's
// source directory.
package images

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/blogdeck/admin/internal/settings"
	"github.com/blogdeck/admin/internal/sitefs"
	"github.com/blogdeck/admin/pkg/logger"
)

const dataURIPrefix = "data:image/png;base64,"

var (
	ErrNoData      = errors.New("no data given")
	ErrUnsupported = errors.New("data must be a base64 PNG data URI")
)

// Options are the upload settings read from the admin config file.
type Options struct {
	RootPath     string
	Prefix       string
	FolderFormat string
	AskFilename  bool
	Overwrite    bool
}

// OptionsFrom applies the options section of settings over the defaults.
func OptionsFrom(all map[string]interface{}) Options {
	o := Options{RootPath: "/uploads", Prefix: "pasted-", FolderFormat: "YYYY/MM"}
	opts := settings.Options(all)
	if s, ok := opts["imageRootPath"].(string); ok && s != "" {
		o.RootPath = s
	}
	if s, ok := opts["imagePrefix"].(string); ok && s != "" {
		o.Prefix = s
	}
	if s, ok := opts["imagePathFolderFormat"].(string); ok && s != "" {
		o.FolderFormat = s
	}
	o.AskFilename, _ = opts["askImageFilename"].(bool)
	o.Overwrite, _ = opts["overwriteImages"].(bool)
	return o
}

// FormatFolder expands moment.js style date tokens (YYYY, YY, MM, M, DD, D,
// HH, H, mm, ss) in format.
func FormatFolder(format string, t time.Time) string {
	two := func(n int) string { return fmt.Sprintf("%02d", n) }
	r := strings.NewReplacer(
		"YYYY", strconv.Itoa(t.Year()),
		"YY", two(t.Year()%100),
		"MM", two(int(t.Month())),
		"M", strconv.Itoa(int(t.Month())),
		"DD", two(t.Day()),
		"D", strconv.Itoa(t.Day()),
		"HH", two(t.Hour()),
		"H", strconv.Itoa(t.Hour()),
		"mm", two(t.Minute()),
		"ss", two(t.Second()),
	)
	return r.Replace(format)
}

// Mirror receives a copy of every stored image.
type Mirror interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Result is returned to the editor.
type Result struct {
	Src string `json:"src"`
	Msg string `json:"msg"`
}

type Uploader struct {
	fs        afero.Fs
	sourceDir string
	root      string
	settings  *settings.Store
	mirror    Mirror
	loc       *time.Location
	now       func() time.Time
}

// NewUploader writes under sourceDir and reports URLs below root. mirror
// may be nil.
func NewUploader(fs afero.Fs, sourceDir, root string, st *settings.Store, mirror Mirror, loc *time.Location) *Uploader {
	if loc == nil {
		loc = time.Local
	}
	return &Uploader{fs: fs, sourceDir: sourceDir, root: root, settings: st, mirror: mirror, loc: loc, now: time.Now}
}

// Upload decodes dataURI and stores it. Without filename the first free
// <prefix><n>.png is used; a given filename gets .png appended when missing
// and falls back to the generated name if taken, unless overwriting is on.
func (u *Uploader) Upload(ctx context.Context, dataURI, filename string) (*Result, error) {
	if dataURI == "" {
		return nil, ErrNoData
	}
	if !strings.HasPrefix(dataURI, dataURIPrefix) {
		return nil, ErrUnsupported
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURI, dataURIPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	all, err := u.settings.Load()
	if err != nil {
		return nil, err
	}
	opts := OptionsFrom(all)
	folder := path.Join("/", opts.RootPath, FormatFolder(opts.FolderFormat, u.now().In(u.loc)))

	exists := func(name string) bool {
		ok, _ := sitefs.Exists(u.fs, filepath.Join(u.sourceDir, filepath.FromSlash(path.Join(folder, name))))
		return ok
	}

	i := 0
	for exists(opts.Prefix + strconv.Itoa(i) + ".png") {
		i++
	}
	name := opts.Prefix + strconv.Itoa(i) + ".png"
	msg := "upload successful"

	if filename != "" {
		given := path.Base(strings.ReplaceAll(filename, "\\", "/"))
		if !strings.HasSuffix(strings.ToLower(given), ".png") {
			given += ".png"
		}
		switch {
		case !exists(given):
			name = given
		case opts.Overwrite:
			name = given
			msg = "overwrote existing file"
		default:
			msg = "filename already exists, renamed"
		}
	}

	rel := path.Join(folder, name)
	out := filepath.Join(u.sourceDir, filepath.FromSlash(rel))
	logger.Debugf("saving image to %s", out)
	if err := sitefs.WriteFile(u.fs, out, data); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}
	if u.mirror != nil {
		if err := u.mirror.Put(ctx, strings.TrimPrefix(rel, "/"), data, "image/png"); err != nil {
			logger.Warnf("mirror %s: %v", rel, err)
		}
	}
	return &Result{Src: path.Join(u.root, rel), Msg: msg}, nil
}
