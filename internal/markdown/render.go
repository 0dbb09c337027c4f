package markdown

import (
	"fmt"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/exampleindex/internal/identifiers"
)

// HTMLRenderer renders ExampleMarker and ExampleContent nodes. The emitted
// class names and IDs are the wire contract the transplant engine extracts
// by.
type HTMLRenderer struct{}

// NewHTMLRenderer returns the node renderer for the example index nodes.
func NewHTMLRenderer() renderer.NodeRenderer {
	return &HTMLRenderer{}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *HTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindExampleMarker, r.renderExampleMarker)
	reg.Register(KindExampleContent, r.renderExampleContent)
}

func (r *HTMLRenderer) renderExampleMarker(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ExampleMarker)
	if entering {
		// The div doubles as the anchor target for backlinks from the
		// standalone page; the example-src- prefix distinguishes it from
		// references to that page.
		_, _ = fmt.Fprintf(w, "<div class=%q id=%q>\n",
			identifiers.SourceClass, identifiers.SourceRefID(n.ExampleID))
	} else {
		_, _ = w.WriteString("</div>\n")
	}
	return ast.WalkContinue, nil
}

func (r *HTMLRenderer) renderExampleContent(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ExampleContent)
	_, _ = fmt.Fprintf(w, "<div class=%q id=%q></div>\n",
		identifiers.ContentClass, n.ExampleID)
	return ast.WalkContinue, nil
}
