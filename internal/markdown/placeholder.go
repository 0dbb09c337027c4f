package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

const placeholderPrefix = "example-content:: "

// KindExampleContent is the node kind of ExampleContent.
var KindExampleContent = ast.NewNodeKind("ExampleContent")

// ExampleContent is the placeholder emitted into generated stub pages. It
// carries no content of its own; the transplant step replaces its rendered
// div with the example's extracted HTML.
type ExampleContent struct {
	ast.BaseBlock

	// ExampleID identifies the example to splice in.
	ExampleID string
}

// Kind implements ast.Node.
func (n *ExampleContent) Kind() ast.NodeKind { return KindExampleContent }

// Dump implements ast.Node.
func (n *ExampleContent) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"ExampleID": n.ExampleID}, nil)
}

type exampleContentParser struct{}

// NewExampleContentParser returns the block parser for
// `example-content:: <example-id>` placeholder directives.
func NewExampleContentParser() parser.BlockParser {
	return &exampleContentParser{}
}

func (p *exampleContentParser) Trigger() []byte { return []byte{'e'} }

func (p *exampleContentParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pos > 3 {
		return nil, parser.NoChildren
	}
	if !bytes.HasPrefix(line[pos:], []byte(placeholderPrefix)) {
		return nil, parser.NoChildren
	}

	exampleID := strings.TrimSpace(string(line[pos+len(placeholderPrefix):]))
	if exampleID == "" {
		return nil, parser.NoChildren
	}

	reader.Advance(segment.Len() - 1)
	return &ExampleContent{ExampleID: exampleID}, parser.NoChildren
}

func (p *exampleContentParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	return parser.Close
}

func (p *exampleContentParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *exampleContentParser) CanInterruptParagraph() bool { return true }

func (p *exampleContentParser) CanAcceptIndentedLine() bool { return false }
