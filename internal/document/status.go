package document

import "strings"

// Status is the lifecycle state implied by a document's source path.
type Status string

const (
	StatusUnknown   Status = "unknown"
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusDiscarded Status = "discarded"
	StatusPage      Status = "page"
)

// Source directory prefixes that encode post status.
const (
	DraftDir     = "_drafts/"
	PostDir      = "_posts/"
	DiscardedDir = "_discarded/"
)

// Classify derives the status of a document. It is the only place path
// prefixes are interpreted.
func Classify(kind Kind, source string) Status {
	source = strings.TrimPrefix(strings.ReplaceAll(source, "\\", "/"), "/")
	switch {
	case strings.HasPrefix(source, DiscardedDir):
		return StatusDiscarded
	case kind == KindPage:
		return StatusPage
	case strings.HasPrefix(source, DraftDir):
		return StatusDraft
	case strings.HasPrefix(source, PostDir):
		return StatusPublished
	}
	return StatusUnknown
}

// Dir returns the source prefix for s, or "" when s has none.
func (s Status) Dir() string {
	switch s {
	case StatusDraft:
		return DraftDir
	case StatusPublished:
		return PostDir
	case StatusDiscarded:
		return DiscardedDir
	}
	return ""
}

// Rebase moves source from its current status directory into to's directory.
// Sources without a status prefix (pages) are nested under the new prefix.
func Rebase(kind Kind, source string, to Status) string {
	source = strings.TrimPrefix(strings.ReplaceAll(source, "\\", "/"), "/")
	rest := strings.TrimPrefix(source, Classify(kind, source).Dir())
	return to.Dir() + rest
}
