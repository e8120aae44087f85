package frontmatter

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Parts is the raw result of Split.
type Parts struct {
	Data    string
	Content string
	// Prefixed reports whether the block opened with a separator line.
	Prefixed bool
}

// Split separates the front-matter block from the body. Both the prefixed
// form ("---\n<data>\n---\n<body>") and the bare form ("<data>\n---\n<body>")
// are recognised. Text without a valid block is returned as Content.
func Split(text string) Parts {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.SplitAfter(text, "\n")
	if len(lines) == 0 {
		return Parts{Content: text}
	}

	if isSeparator(lines[0]) {
		sep := strings.TrimRight(lines[0], "\n")
		offset := len(lines[0])
		for _, line := range lines[1:] {
			if strings.TrimRight(line, "\n") == sep {
				return Parts{
					Data:     strings.TrimSuffix(text[len(lines[0]):offset], "\n"),
					Content:  text[offset+len(line):],
					Prefixed: true,
				}
			}
			offset += len(line)
		}
		return Parts{Content: text}
	}

	offset := 0
	for _, line := range lines {
		if isSeparator(line) {
			data := strings.TrimSuffix(text[:offset], "\n")
			if !isMapping(data) {
				break
			}
			return Parts{Data: data, Content: text[offset+len(line):]}
		}
		offset += len(line)
	}
	return Parts{Content: text}
}

func isSeparator(line string) bool {
	line = strings.TrimRight(line, "\n")
	return len(line) >= 3 && strings.Trim(line, "-") == ""
}

func isMapping(data string) bool {
	if strings.TrimSpace(data) == "" {
		return false
	}
	var n yaml.Node
	if err := yaml.Unmarshal([]byte(data), &n); err != nil {
		return false
	}
	return len(n.Content) == 1 && n.Content[0].Kind == yaml.MappingNode
}

// Parse decodes text into an ordered Matter. Unzoned timestamps are read in
// loc (time.Local when nil).
func Parse(text string, loc *time.Location) (*Matter, error) {
	parts := Split(text)
	m := New()
	m.Body = parts.Content
	if strings.TrimSpace(parts.Data) == "" {
		return m, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(parts.Data), &doc); err != nil {
		return nil, fmt.Errorf("frontmatter: decode: %w", err)
	}
	if len(doc.Content) == 0 {
		return m, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("frontmatter: expected a mapping, got %v", root.ShortTag())
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		val, err := decodeValue(root.Content[i+1], loc)
		if err != nil {
			return nil, fmt.Errorf("frontmatter: field %q: %w", key, err)
		}
		m.Set(key, val)
	}
	return m, nil
}

func decodeValue(n *yaml.Node, loc *time.Location) (interface{}, error) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!timestamp" {
		if t, ok := ParseDate(n.Value, loc); ok {
			return t, nil
		}
	}
	var v interface{}
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Stringify serializes m as a prefixed front-matter block followed by the body.
func Stringify(m *Matter) (string, error) {
	var out strings.Builder
	out.WriteString("---\n")
	if m.Len() > 0 {
		root := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range m.keys {
			val, err := encodeValue(m.values[k])
			if err != nil {
				return "", fmt.Errorf("frontmatter: field %q: %w", k, err)
			}
			root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, val)
		}
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(root); err != nil {
			return "", fmt.Errorf("frontmatter: encode: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("frontmatter: encode: %w", err)
		}
		out.Write(buf.Bytes())
	}
	out.WriteString("---\n")
	out.WriteString(m.Body)
	return out.String(), nil
}

func encodeValue(v interface{}) (*yaml.Node, error) {
	switch tv := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: ""}, nil
	case time.Time:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: tv.Format(DateLayout)}, nil
	}
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}
