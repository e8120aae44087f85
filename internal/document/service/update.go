package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/blogdeck/admin/internal/document"
	"github.com/blogdeck/admin/internal/document/repository"
	"github.com/blogdeck/admin/internal/frontmatter"
	"github.com/blogdeck/admin/internal/sitefs"
	"github.com/blogdeck/admin/pkg/logger"
	"github.com/blogdeck/admin/pkg/metrics"
)

// preservedKeys are copied from the change-set into the front matter.
// Configured metadata keys are appended per run.
var preservedKeys = []string{"title", "date", "tags", "categories", frontmatter.BodyKey, "author"}

// Update applies changes to the document and rewrites its file. Updates to
// the same id are serialized.
func (s *documentService) Update(ctx context.Context, kind document.Kind, id string, changes document.Changes) (*document.Document, error) {
	unlock := s.locks.Lock(id)
	defer unlock()
	return s.update(ctx, kind, id, changes)
}

// update runs the pipeline. The caller holds the lock for id.
func (s *documentService) update(ctx context.Context, kind document.Kind, id string, changes document.Changes) (*document.Document, error) {
	start := s.now()
	run := &updateRun{s: s, kind: kind, id: id, changes: changes, loc: s.site.Location()}

	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"resolve", run.resolve},
		{"normalize", run.normalize},
		{"compile", run.compile},
		{"target", run.target},
		{"merge", run.merge},
		{"serialize", run.serialize},
		{"relational", run.relational},
		{"apply", run.apply},
		{"persist", run.persist},
		{"write", run.write},
		{"relocate", run.relocate},
		{"render", run.render},
		{"refetch", run.refetch},
	}
	for _, st := range stages {
		if err := st.fn(ctx); err != nil {
			var se *StageError
			if !errors.As(err, &se) {
				err = stageErr(st.name, nil, err)
			}
			metrics.UpdateStageFailures.WithLabelValues(st.name).Inc()
			metrics.DocumentUpdates.WithLabelValues(string(kind), "error").Inc()
			logger.Warnf("update %s %s failed: %v", kind, id, err)
			return nil, err
		}
	}
	metrics.DocumentUpdates.WithLabelValues(string(kind), "ok").Inc()
	metrics.UpdateDuration.WithLabelValues(string(kind)).Observe(s.now().Sub(start).Seconds())
	logger.Infof("updated %s %s (%s)", kind, id, run.result.Source)
	return run.result, nil
}

// updateRun carries state between stages.
type updateRun struct {
	s       *documentService
	kind    document.Kind
	id      string
	changes document.Changes
	loc     *time.Location

	orig     *document.Document
	doc      *document.Document
	compiled *frontmatter.Matter
	date     time.Time
	now      time.Time

	oldPath   string
	newPath   string
	newSource string
	// assetDir is the old path's asset directory when it existed before the
	// write; assetEntries are its entries at that point.
	assetDir     string
	assetEntries []string

	result *document.Document
}

func (r *updateRun) resolve(ctx context.Context) error {
	d, err := r.s.repo.Get(ctx, r.kind, r.id)
	if errors.Is(err, repository.ErrNotFound) {
		return stageErr("resolve", ErrNotFound, err)
	}
	if err != nil {
		return stageErr("resolve", nil, err)
	}
	r.orig = d.Clone()
	r.doc = d
	return nil
}

func (r *updateRun) normalize(context.Context) error {
	d := r.doc
	slug := d.Slug
	if slug == "" {
		slug = d.Title
	}
	d.Slug = frontmatter.Escape(slug, frontmatter.CaseMode(r.s.site.FilenameCase))
	layout := d.Layout
	if layout == "" {
		layout = r.s.site.DefaultLayout
	}
	d.Layout = strings.ToLower(layout)
	if d.Date.IsZero() {
		d.Date = r.s.now().In(r.loc)
	}
	return nil
}

// compile re-parses the stored raw text in canonical prefixed form so that
// a header and body edited separately are normalised together.
func (r *updateRun) compile(context.Context) error {
	parts := frontmatter.Split(r.doc.Raw)
	if strings.TrimSpace(parts.Data) == "" {
		r.compiled = frontmatter.New()
		r.compiled.Body = parts.Content
		return nil
	}
	m, err := frontmatter.Parse("---\n"+parts.Data+"\n---\n"+parts.Content, r.loc)
	if err != nil {
		return stageErr("compile", ErrInvalidInput, err)
	}
	r.compiled = m
	return nil
}

func (r *updateRun) target(ctx context.Context) error {
	r.oldPath = r.doc.FullSource(r.s.site.SourceDir)
	r.newPath = r.oldPath
	src, ok := r.changes.Source()
	if !ok {
		return nil
	}
	src, err := cleanSource(src)
	if err != nil {
		return stageErr("target", ErrInvalidInput, err)
	}
	if src == r.doc.Source {
		return nil
	}
	if other, err := r.s.repo.FindBySource(ctx, src); err == nil && other.ID != r.id {
		return stageErr("target", ErrConflict, fmt.Errorf("%s belongs to %s", src, other.ID))
	}
	newPath := filepath.Join(r.s.site.SourceDir, filepath.FromSlash(src))
	if ok, _ := sitefs.Exists(r.s.fs, newPath); ok {
		return stageErr("target", ErrConflict, fmt.Errorf("%s exists", src))
	}
	r.newSource = src
	r.newPath = newPath

	assetDir := sitefs.TrimExt(r.oldPath)
	if ok, _ := afero.DirExists(r.s.fs, assetDir); ok {
		infos, err := afero.ReadDir(r.s.fs, assetDir)
		if err != nil {
			return stageErr("target", nil, err)
		}
		r.assetDir = assetDir
		for _, fi := range infos {
			r.assetEntries = append(r.assetEntries, fi.Name())
		}
	}
	return nil
}

// cleanSource validates a requested source path and returns it relative and
// slash separated.
func cleanSource(src string) (string, error) {
	src = path.Clean(strings.ReplaceAll(strings.TrimSpace(src), "\\", "/"))
	src = strings.TrimPrefix(src, "/")
	if src == "" || src == "." || src == ".." || strings.HasPrefix(src, "../") {
		return "", fmt.Errorf("source %q escapes the source directory", src)
	}
	if path.Ext(src) == "" {
		return "", fmt.Errorf("source %q has no extension", src)
	}
	return src, nil
}

func (r *updateRun) merge(context.Context) error {
	keys := append(append([]string{}, preservedKeys...), r.s.site.MetadataKeys()...)
	for _, key := range keys {
		if !r.changes.Has(key) {
			continue
		}
		v := r.changes.Value(key)
		if names, ok := v.([]string); ok {
			v = document.NormalizeNames(names)
		}
		r.compiled.Set(key, v)
	}
	date, _ := r.compiled.Get("date")
	if t, ok := frontmatter.ParseDate(date, r.loc); ok {
		r.date = t.In(r.loc)
	} else {
		r.date = r.doc.Date.In(r.loc)
	}
	r.compiled.Set("date", r.date)
	return nil
}

func (r *updateRun) serialize(context.Context) error {
	raw, err := frontmatter.Stringify(r.compiled)
	if err != nil {
		return stageErr("serialize", ErrInvalidInput, err)
	}
	r.now = r.s.now().In(r.loc)
	r.doc.Raw = raw
	r.doc.Updated = r.now
	r.doc.Date = r.date
	return nil
}

func (r *updateRun) relational(context.Context) error {
	if r.changes.Tags != nil {
		r.doc.SetTags(*r.changes.Tags)
	}
	if r.changes.Categories != nil {
		r.doc.SetCategories(*r.changes.Categories)
	}
	return nil
}

// apply merges the remaining plain fields onto the record. Keys the record
// has no field for are ignored.
func (r *updateRun) apply(context.Context) error {
	d := r.doc
	meta := map[string]bool{}
	for _, k := range r.s.site.MetadataKeys() {
		meta[k] = true
	}
	for k, v := range r.changes.Fields {
		switch k {
		case "title":
			d.Title = asString(v)
		case "author":
			d.Author = asString(v)
		case "slug":
			d.Slug = asString(v)
		case "layout":
			d.Layout = strings.ToLower(asString(v))
		case frontmatter.BodyKey:
			d.Body = asString(v)
		default:
			if meta[k] {
				if d.Meta == nil {
					d.Meta = map[string]interface{}{}
				}
				d.Meta[k] = v
			}
		}
	}
	if r.newSource != "" {
		d.Source = r.newSource
	}
	d.DeriveStatus()
	return nil
}

func asString(v interface{}) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return tv
	}
	return fmt.Sprint(v)
}

func (r *updateRun) persist(ctx context.Context) error {
	if err := r.s.repo.Save(ctx, r.doc); err != nil {
		return stageErr("persist", ErrPersistFailure, err)
	}
	return nil
}

// write puts the new raw text on disk. When that fails the store is rolled
// back to the record as it was before the update.
func (r *updateRun) write(ctx context.Context) error {
	err := sitefs.WriteFile(r.s.fs, r.newPath, []byte(r.doc.Raw))
	if err == nil {
		return nil
	}
	if rbErr := r.s.repo.Save(ctx, r.orig); rbErr != nil {
		logger.Errorf("rollback of %s %s failed, store and disk disagree: %v", r.kind, r.id, rbErr)
		metrics.UpdateStageFailures.WithLabelValues("rollback").Inc()
	}
	return stageErr("write", ErrWriteFailure, err)
}

// relocate removes the old file and moves its asset directory after a
// source change. Failures are logged only.
func (r *updateRun) relocate(context.Context) error {
	if r.newPath == r.oldPath {
		return nil
	}
	fs := r.s.fs
	if err := fs.Remove(r.oldPath); err != nil {
		logger.Warnf("remove %s: %v", r.oldPath, err)
		metrics.UpdateStageFailures.WithLabelValues("relocate").Inc()
	}
	if r.assetDir == "" {
		return nil
	}
	assetDest := sitefs.TrimExt(r.newPath)
	var err error
	if sitefs.Within(r.assetDir, r.newPath) {
		// the new file lives inside the old asset dir: move only what was there
		err = r.moveAssetEntries(assetDest)
	} else {
		err = sitefs.MoveDir(fs, r.assetDir, assetDest)
	}
	if err != nil {
		logger.Warnf("move asset dir %s: %v", r.assetDir, err)
		metrics.UpdateStageFailures.WithLabelValues("relocate").Inc()
	}
	return nil
}

func (r *updateRun) moveAssetEntries(assetDest string) error {
	var errs []error
	for _, name := range r.assetEntries {
		from := filepath.Join(r.assetDir, name)
		if sitefs.Within(from, r.newPath) || sitefs.Within(from, assetDest) {
			continue
		}
		if err := sitefs.Move(r.s.fs, from, filepath.Join(assetDest, name)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// render refreshes the derived HTML fields. A render or save failure here
// leaves the written file in place and does not fail the update.
func (r *updateRun) render(ctx context.Context) error {
	r.doc.Content = r.doc.Body
	if err := r.s.renderer.Render(ctx, r.newPath, r.doc); err != nil {
		logger.Warnf("render %s: %v", r.doc.Source, err)
		metrics.UpdateStageFailures.WithLabelValues("render").Inc()
		return nil
	}
	if err := r.s.repo.Save(ctx, r.doc); err != nil {
		logger.Warnf("save rendered %s: %v", r.doc.Source, err)
		metrics.UpdateStageFailures.WithLabelValues("render").Inc()
	}
	return nil
}

func (r *updateRun) refetch(ctx context.Context) error {
	d, err := r.s.repo.Get(ctx, r.kind, r.id)
	if errors.Is(err, repository.ErrNotFound) {
		return stageErr("refetch", ErrNotFound, err)
	}
	if err != nil {
		return stageErr("refetch", nil, err)
	}
	r.result = d.DeriveStatus()
	return nil
}
