package document

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"time"
)

// Kind names the collection a document belongs to.
type Kind string

const (
	KindPost Kind = "Post"
	KindPage Kind = "Page"
)

// ParseKind accepts "post"/"page" in any case.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(s) {
	case "post", "posts":
		return KindPost, true
	case "page", "pages":
		return KindPage, true
	}
	return "", false
}

// Document is a post or page backed by a file under the site's source dir.
type Document struct {
	ID      string    `json:"_id" bson:"_id"`
	Kind    Kind      `json:"kind" bson:"kind"`
	Source  string    `json:"source" bson:"source"`
	Raw     string    `json:"raw" bson:"raw"`
	Title   string    `json:"title" bson:"title"`
	Date    time.Time `json:"date" bson:"date"`
	Updated time.Time `json:"updated" bson:"updated"`
	Slug    string    `json:"slug" bson:"slug"`
	Layout  string    `json:"layout" bson:"layout"`
	Author  string    `json:"author,omitempty" bson:"author,omitempty"`
	// Body is the unrendered text below the front matter.
	Body string `json:"_content" bson:"body"`
	// Content is the rendered HTML.
	Content   string `json:"content" bson:"content"`
	Excerpt   string `json:"excerpt" bson:"excerpt"`
	More      string `json:"more" bson:"more"`
	WordCount int    `json:"wordCount" bson:"wordCount"`
	// Meta holds values for the site's declared metadata keys.
	Meta       map[string]interface{} `json:"-" bson:"meta,omitempty"`
	Tags       []string               `json:"tags" bson:"tags"`
	Categories []string               `json:"categories" bson:"categories"`
	Status     Status                 `json:"status" bson:"status"`
}

// SetTags replaces the tag assignment. Names are trimmed and deduplicated.
func (d *Document) SetTags(names []string) { d.Tags = NormalizeNames(names) }

// SetCategories replaces the category assignment.
func (d *Document) SetCategories(names []string) { d.Categories = NormalizeNames(names) }

// NormalizeNames trims names and drops blanks and duplicates, keeping order.
func NormalizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// DeriveStatus recomputes Status from Kind and Source.
func (d *Document) DeriveStatus() *Document {
	d.Status = Classify(d.Kind, d.Source)
	return d
}

// FullSource is the absolute path of the document's file.
func (d *Document) FullSource(sourceDir string) string {
	return filepath.Join(sourceDir, filepath.FromSlash(d.Source))
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Tags = append([]string(nil), d.Tags...)
	c.Categories = append([]string(nil), d.Categories...)
	if d.Meta != nil {
		c.Meta = make(map[string]interface{}, len(d.Meta))
		for k, v := range d.Meta {
			c.Meta[k] = v
		}
	}
	return &c
}

// MarshalJSON flattens Meta into the top-level object and adds the
// isDraft/isDiscarded flags the editor filters on.
func (d *Document) MarshalJSON() ([]byte, error) {
	type plain Document
	b, err := json.Marshal((*plain)(d))
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	for k, v := range d.Meta {
		if _, taken := out[k]; !taken {
			out[k] = v
		}
	}
	status := Classify(d.Kind, d.Source)
	out["status"] = status
	out["isDraft"] = status == StatusDraft
	out["isDiscarded"] = status == StatusDiscarded
	return json.Marshal(out)
}
