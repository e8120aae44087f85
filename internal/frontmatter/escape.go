package frontmatter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CaseMode selects the letter case applied by Escape, matching the site's
// filename_case setting.
type CaseMode int

const (
	CaseKeep CaseMode = iota
	CaseLower
	CaseUpper
)

var (
	rControl = regexp.MustCompile(`[\x00-\x1f]`)
	rSpecial = regexp.MustCompile(`[\s~` + "`" + `!@#$%^&*()\-_+=\[\]{}|\\;:"'<>,.?/]+`)
	rTrim    = regexp.MustCompile(`^-+|-+$`)
)

// Escape turns a title into a filesystem and URL safe slug.
func Escape(s string, mode CaseMode) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}
	s = rControl.ReplaceAllString(s, "")
	s = rSpecial.ReplaceAllString(s, "-")
	s = rTrim.ReplaceAllString(s, "")
	switch mode {
	case CaseLower:
		return strings.ToLower(s)
	case CaseUpper:
		return strings.ToUpper(s)
	}
	return s
}
