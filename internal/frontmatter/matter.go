// Package frontmatter reads and writes the YAML block at the top of post and
// page files. Key order is preserved across a parse/stringify cycle so that
// editing a post through the admin API does not reshuffle its header.
package frontmatter

// BodyKey is the change-set key that addresses the body text rather than a
// front-matter field.
const BodyKey = "_content"

// Matter is an ordered front-matter mapping together with the body text.
type Matter struct {
	keys   []string
	values map[string]interface{}
	Body   string
}

// New returns an empty Matter.
func New() *Matter {
	return &Matter{values: map[string]interface{}{}}
}

func (m *Matter) Get(key string) (interface{}, bool) {
	if key == BodyKey {
		return m.Body, true
	}
	v, ok := m.values[key]
	return v, ok
}

// Set assigns key, appending it to the key order when new. BodyKey writes
// the body.
func (m *Matter) Set(key string, v interface{}) {
	if key == BodyKey {
		s, _ := v.(string)
		m.Body = s
		return
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

func (m *Matter) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the field names in document order.
func (m *Matter) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *Matter) Len() int { return len(m.keys) }

// String returns the value of key when it is a string.
func (m *Matter) String(key string) string {
	v, _ := m.values[key].(string)
	return v
}

// Strings returns key as a string list. A scalar becomes a one-element list.
func (m *Matter) Strings(key string) []string {
	switch v := m.values[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, it := range v {
			if s, ok := it.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}
