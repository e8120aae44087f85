package render

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogdeck/admin/internal/document"
)

func TestRender_Markdown(t *testing.T) {
	d := &document.Document{Content: "# Hi\n\nsome *text* here"}
	require.NoError(t, NewMarkdown().Render(context.Background(), "/s/_posts/a.md", d))
	assert.Contains(t, d.Content, "<h1")
	assert.Contains(t, d.Content, "<em>text</em>")
	assert.Equal(t, "", d.Excerpt)
	assert.Equal(t, d.Content, d.More)
	assert.Equal(t, 4, d.WordCount)
}

func TestRender_SplitsOnMore(t *testing.T) {
	d := &document.Document{Content: "intro\n\n<!-- more -->\n\nrest"}
	require.NoError(t, NewMarkdown().Render(context.Background(), "a.md", d))
	assert.Contains(t, d.Excerpt, "intro")
	assert.NotContains(t, d.Excerpt, "rest")
	assert.Contains(t, d.More, "rest")
	assert.Contains(t, d.Content, "intro")
	assert.Contains(t, d.Content, "rest")
}

func TestRender_Sanitizes(t *testing.T) {
	d := &document.Document{Content: "hello <script>alert(1)</script>"}
	require.NoError(t, NewMarkdown().Render(context.Background(), "a.md", d))
	assert.NotContains(t, d.Content, "<script>")
}

func TestRender_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, NewMarkdown().Render(ctx, "a.md", &document.Document{}))
}
