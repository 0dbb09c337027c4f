package markdown

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// ExampleIndex is the goldmark extension bundling the marker directive, the
// placeholder directive, the underline heading transformer and the source
// link rewriter.
type ExampleIndex struct {
	// H1Char is the underline character promoted to H1 headings.
	H1Char string
}

// Extend implements goldmark.Extender.
func (e *ExampleIndex) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(
			util.Prioritized(NewExampleContentParser(), 100),
			util.Prioritized(NewExampleMarkerParser(), 101),
		),
		parser.WithASTTransformers(
			util.Prioritized(NewUnderlineHeadingTransformer(e.H1Char), 100),
			util.Prioritized(NewSourceLinkTransformer(), 200),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(NewHTMLRenderer(), 500),
		),
	)
}
