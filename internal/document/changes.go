package document

import (
	"fmt"
	"strings"

	"github.com/blogdeck/admin/internal/frontmatter"
)

// Changes is an update request split by capability: plain fields merge onto
// the record, while tags and categories only go through the relational
// mutators.
type Changes struct {
	Fields     map[string]interface{}
	Tags       *[]string
	Categories *[]string
}

// ParseChanges splits a decoded request body. "content" is accepted as an
// alias of the body key.
func ParseChanges(body map[string]interface{}) Changes {
	c := Changes{Fields: make(map[string]interface{}, len(body))}
	for k, v := range body {
		switch k {
		case "tags":
			names := toStrings(v)
			c.Tags = &names
		case "categories":
			names := toStrings(v)
			c.Categories = &names
		case "content":
			if _, explicit := body[frontmatter.BodyKey]; !explicit {
				c.Fields[frontmatter.BodyKey] = v
			}
		default:
			c.Fields[k] = v
		}
	}
	return c
}

// Has reports whether key is part of the change-set, including relational keys.
func (c Changes) Has(key string) bool {
	switch key {
	case "tags":
		return c.Tags != nil
	case "categories":
		return c.Categories != nil
	}
	_, ok := c.Fields[key]
	return ok
}

// Value returns the requested value for key, rendering relational keys as
// string lists for front-matter output.
func (c Changes) Value(key string) interface{} {
	switch key {
	case "tags":
		if c.Tags != nil {
			return *c.Tags
		}
		return nil
	case "categories":
		if c.Categories != nil {
			return *c.Categories
		}
		return nil
	}
	return c.Fields[key]
}

// Source returns the requested new source path, if any.
func (c Changes) Source() (string, bool) {
	s, ok := c.Fields["source"].(string)
	s = strings.TrimSpace(s)
	return s, ok && s != ""
}

func toStrings(v interface{}) []string {
	switch tv := v.(type) {
	case nil:
		return []string{}
	case []string:
		return tv
	case string:
		if tv == "" {
			return []string{}
		}
		return []string{tv}
	case []interface{}:
		out := make([]string, 0, len(tv))
		for _, it := range tv {
			switch s := it.(type) {
			case string:
				out = append(out, s)
			case nil:
			default:
				out = append(out, fmt.Sprint(s))
			}
		}
		return out
	}
	return []string{fmt.Sprint(v)}
}
