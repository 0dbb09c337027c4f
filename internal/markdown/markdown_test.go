package markdown

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func newMarkdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(&ExampleIndex{H1Char: "#"}))
}

func render(t *testing.T, src string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, newMarkdown().Convert([]byte(src), &buf))
	return buf.String()
}

func TestMarkerWrapsRenderedContent(t *testing.T) {
	src := "example:: Demo Example\n\n    First paragraph.\n\n    Second paragraph.\n"

	html := render(t, src)
	require.Contains(t, html, `<div class="example-index-source" id="example-src-demo-example">`)
	require.Contains(t, html, "<p>First paragraph.</p>")
	require.Contains(t, html, "<p>Second paragraph.</p>")
	require.Contains(t, html, "</div>")
}

func TestMarkerContentEndsAtDedent(t *testing.T) {
	src := "example:: Demo\n\n    Inside.\n\nAfter the example.\n"

	html := render(t, src)
	closing := strings.Index(html, "</div>")
	after := strings.Index(html, "<p>After the example.</p>")
	require.Positive(t, closing)
	require.Positive(t, after)
	require.Less(t, closing, after)
}

func TestMarkerNestedRichContent(t *testing.T) {
	src := "example:: Rich\n\n    See [the guide](../guide/intro.md) and ![pic](images/x.png).\n"

	html := render(t, src)
	// Nested content goes through the normal rendering path, including the
	// .md -> .html link rewrite.
	require.Contains(t, html, `<a href="../guide/intro.html">the guide</a>`)
	require.Contains(t, html, `<img src="images/x.png"`)
}

func TestMarkerBodyWithoutBlankLine(t *testing.T) {
	// Indented content directly under the marker line, no separating blank.
	// The detector accepts the same form.
	src := "example:: Quick Start\n    Connect like this.\n"

	html := render(t, src)
	require.Contains(t, html, `<div class="example-index-source" id="example-src-quick-start">`)
	require.Contains(t, html, "<p>Connect like this.</p>")
}

func TestMarkerParsesTagsOption(t *testing.T) {
	src := "example:: Tagged\n    tags: alpha, beta\n\n    Body.\n"

	root := newMarkdown().Parser().Parse(text.NewReader([]byte(src)))
	var marker *ExampleMarker
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if m, ok := n.(*ExampleMarker); ok && entering {
			marker = m
		}
		return ast.WalkContinue, nil
	})

	require.NotNil(t, marker)
	require.Equal(t, "Tagged", marker.Title)
	require.Equal(t, "tagged", marker.ExampleID)
	require.True(t, marker.Tags.Has("alpha"))
	require.True(t, marker.Tags.Has("beta"))

	// The tags line itself must not leak into the rendered content.
	html := render(t, src)
	require.NotContains(t, html, "tags: alpha")
	require.Contains(t, html, "<p>Body.</p>")
}

func TestPlaceholderRendersEmptyDiv(t *testing.T) {
	html := render(t, "example-content:: my-example\n")
	require.Contains(t, html, `<div class="example-index-content" id="my-example"></div>`)
}

func TestPlaceholderRequiresArgument(t *testing.T) {
	html := render(t, "example-content:: \n")
	require.NotContains(t, html, "example-index-content")
}

func TestUnderlineHeadingPromoted(t *testing.T) {
	html := render(t, "My Example Title\n################\n\nBody text.\n")
	require.Contains(t, html, "<h1>My Example Title</h1>")
	require.Contains(t, html, "<p>Body text.</p>")
}

func TestUnderlineHeadingWrongCharLeftAlone(t *testing.T) {
	html := render(t, "Not a title\n~~~~~~~~~~~\n")
	require.NotContains(t, html, "<h1>")
}

func TestUnderlineHeadingMixedCharsLeftAlone(t *testing.T) {
	html := render(t, "Not a title\n##~#\n")
	require.NotContains(t, html, "<h1>")
}

func TestSourceLinkRewrite(t *testing.T) {
	cases := []struct {
		in       []byte
		expected string
	}{
		{[]byte("other.md"), "other.html"},
		{[]byte("../guide/intro.md#section"), "../guide/intro.html#section"},
		{[]byte("https://example.com/page.md"), "https://example.com/page.md"},
		{[]byte("mailto:docs@example.com"), "mailto:docs@example.com"},
		{[]byte("images/pic.png"), "images/pic.png"},
	}
	for _, c := range cases {
		require.Equal(t, c.expected, string(rewriteDestination(c.in)), "input %q", c.in)
	}
}
