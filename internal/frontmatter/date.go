package frontmatter

import (
	"strings"
	"time"
)

// DateLayout is how dates are written back into front matter.
const DateLayout = "2006-01-02 15:04:05"

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	DateLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-1-2 15:4:5",
	"2006-01-02",
	"2006-1-2",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// ParseDate interprets a front-matter or request date. Strings without a zone
// are read in loc. Numbers are Unix milliseconds, as sent by browser clients.
func ParseDate(v interface{}, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	switch tv := v.(type) {
	case time.Time:
		return tv, !tv.IsZero()
	case *time.Time:
		if tv == nil {
			return time.Time{}, false
		}
		return *tv, !tv.IsZero()
	case string:
		s := strings.TrimSpace(tv)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t, true
			}
		}
	case float64:
		return time.UnixMilli(int64(tv)).In(loc), true
	case int:
		return time.UnixMilli(int64(tv)).In(loc), true
	case int64:
		return time.UnixMilli(tv).In(loc), true
	}
	return time.Time{}, false
}

// NormalizeDate returns the parsed date, or now when v is absent or invalid.
func NormalizeDate(v interface{}, loc *time.Location) time.Time {
	if t, ok := ParseDate(v, loc); ok {
		return t
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Now().In(loc)
}
