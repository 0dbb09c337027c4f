package markdown

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var externalDestination = regexp.MustCompile(`^([a-z][a-z0-9+.-]*:)|(^//)`)

// sourceLinkTransformer rewrites relative links between markdown sources to
// point at the built HTML pages, preserving fragments. Authors link to
// "other-page.md"; the built site serves "other-page.html".
type sourceLinkTransformer struct{}

// NewSourceLinkTransformer returns the .md -> .html link rewriter.
func NewSourceLinkTransformer() parser.ASTTransformer {
	return &sourceLinkTransformer{}
}

// Transform implements parser.ASTTransformer.
func (t *sourceLinkTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if link, ok := n.(*ast.Link); ok {
			link.Destination = rewriteDestination(link.Destination)
		}
		return ast.WalkContinue, nil
	})
}

func rewriteDestination(dest []byte) []byte {
	s := string(dest)
	if externalDestination.MatchString(s) {
		return dest
	}

	base, fragment, hasFragment := strings.Cut(s, "#")
	if !strings.HasSuffix(base, ".md") {
		return dest
	}
	base = strings.TrimSuffix(base, ".md") + ".html"
	if hasFragment {
		return []byte(base + "#" + fragment)
	}
	return []byte(base)
}
