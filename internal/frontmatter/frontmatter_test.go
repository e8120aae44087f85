package frontmatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		data     string
		content  string
		prefixed bool
	}{
		{"prefixed", "---\ntitle: a\n---\nbody\n", "title: a", "body\n", true},
		{"bare", "title: a\ntags: [x]\n---\nbody", "title: a\ntags: [x]", "body", false},
		{"crlf", "---\r\ntitle: a\r\n---\r\nbody", "title: a", "body", true},
		{"empty block", "---\n---\nbody", "", "body", true},
		{"no closing line", "---\ntitle: a\nbody", "", "---\ntitle: a\nbody", false},
		{"no front matter", "just text\n", "", "just text\n", false},
		{"rule inside prose", "Some prose here.\n---\nmore", "", "Some prose here.\n---\nmore", false},
		{"closing at eof", "---\ntitle: a\n---", "title: a", "", true},
		{"body keeps later rules", "---\na: 1\n---\nx\n---\ny", "a: 1", "x\n---\ny", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Split(tt.in)
			assert.Equal(t, tt.data, p.Data)
			assert.Equal(t, tt.content, p.Content)
			assert.Equal(t, tt.prefixed, p.Prefixed)
		})
	}
}

func TestParse_OrderTypesAndDates(t *testing.T) {
	text := "---\ntitle: \"Hello: World\"\ndate: 2024-03-05 10:20:30\ntags:\n  - go\n  - blog\ndraft: true\ncount: 3\n---\n# Hi\n"
	m, err := Parse(text, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, []string{"title", "date", "tags", "draft", "count"}, m.Keys())
	assert.Equal(t, "Hello: World", m.String("title"))
	assert.Equal(t, []string{"go", "blog"}, m.Strings("tags"))
	v, _ := m.Get("draft")
	assert.Equal(t, true, v)
	d, _ := m.Get("date")
	assert.Equal(t, time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC), d)
	assert.Equal(t, "# Hi\n", m.Body)
}

func TestParse_RejectsNonMapping(t *testing.T) {
	_, err := Parse("---\n- a\n- b\n---\nbody", time.UTC)
	require.Error(t, err)
}

func TestStringify_RoundTrip(t *testing.T) {
	m := New()
	m.Set("title", "Hello: World")
	m.Set("date", time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC))
	m.Set("tags", []string{"go", "blog"})
	m.Set("author", "Jo")
	m.Set(BodyKey, "body text\n")

	out, err := Stringify(m)
	require.NoError(t, err)
	assert.Contains(t, out, "date: 2024-03-05 10:20:30\n")
	assert.Contains(t, out, "tags:\n  - go\n  - blog\n")
	assert.True(t, len(out) > 4 && out[:4] == "---\n")

	back, err := Parse(out, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, m.Keys(), back.Keys())
	for _, k := range m.Keys() {
		want, _ := m.Get(k)
		got, _ := back.Get(k)
		if k == "tags" {
			assert.Equal(t, want, back.Strings(k))
			continue
		}
		assert.Equal(t, want, got, k)
	}
	assert.Equal(t, "body text\n", back.Body)
}

func TestMatter_SetDelete(t *testing.T) {
	m := New()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("a", 3)
	assert.Equal(t, []string{"a", "b"}, m.Keys())
	m.Delete("a")
	m.Delete("missing")
	assert.Equal(t, []string{"b"}, m.Keys())
	_, ok := m.Get("a")
	assert.False(t, ok)
}

func TestEscape(t *testing.T) {
	tests := []struct {
		in   string
		mode CaseMode
		want string
	}{
		{"Hello World", CaseKeep, "Hello-World"},
		{"Hello World", CaseLower, "hello-world"},
		{"Hello World", CaseUpper, "HELLO-WORLD"},
		{"  Crème brûlée!? ", CaseLower, "creme-brulee"},
		{"a -- b__c", CaseKeep, "a-b-c"},
		{"你好 世界", CaseKeep, "你好-世界"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Escape(tt.in, tt.mode), tt.in)
	}
}

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("X", 8*3600)
	tests := []struct {
		in   interface{}
		want time.Time
		ok   bool
	}{
		{"2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, loc), true},
		{"2024-01-02 03:04:05", time.Date(2024, 1, 2, 3, 4, 5, 0, loc), true},
		{"2024-01-02T03:04:05Z", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), true},
		{float64(0), time.UnixMilli(0).In(loc), true},
		{"garbage", time.Time{}, false},
		{nil, time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in, loc)
		require.Equal(t, tt.ok, ok, "%v", tt.in)
		if ok {
			assert.True(t, tt.want.Equal(got), "%v: got %v want %v", tt.in, got, tt.want)
		}
	}
	assert.False(t, NormalizeDate(nil, loc).IsZero())
}
