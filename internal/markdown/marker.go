// Package markdown implements the goldmark extensions of the example index:
// the example marker directive, the example-content placeholder directive, an
// underline-to-heading transformer for generated stub pages, and a relative
// .md -> .html link rewriter.
package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/exampleindex/internal/identifiers"
	"git.home.luguber.info/inful/exampleindex/internal/util/sets"
)

const (
	markerPrefix = "example:: "

	// contentIndent is the indentation of a marker's nested content block.
	contentIndent = 4
)

var tagsOptionPattern = regexp.MustCompile(`^ +tags: +(.+)$`)

// KindExampleMarker is the node kind of ExampleMarker.
var KindExampleMarker = ast.NewNodeKind("ExampleMarker")

// ExampleMarker wraps an example's nested content where it appears in the
// prose. The content is parsed through the normal rendering path, so
// cross-references and images resolve exactly as they would un-marked; the
// marker only adds an identifiable wrapper for the transplant step.
type ExampleMarker struct {
	ast.BaseBlock

	// Title as written after the marker keyword, trimmed.
	Title string

	// ExampleID is the slug derived from Title.
	ExampleID string

	// Tags from the optional tags option line.
	Tags sets.Set[string]

	optionsScanned bool
}

// NewExampleMarker creates a marker node for the given title.
func NewExampleMarker(title string) *ExampleMarker {
	return &ExampleMarker{
		Title:     title,
		ExampleID: identifiers.ExampleID(title),
		Tags:      sets.New[string](),
	}
}

// Kind implements ast.Node.
func (n *ExampleMarker) Kind() ast.NodeKind { return KindExampleMarker }

// Dump implements ast.Node.
func (n *ExampleMarker) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Title":     n.Title,
		"ExampleID": n.ExampleID,
	}, nil)
}

type exampleMarkerParser struct{}

// NewExampleMarkerParser returns the block parser for `example:: <title>`
// directives with an optional `tags:` option line and an indented content
// block.
func NewExampleMarkerParser() parser.BlockParser {
	return &exampleMarkerParser{}
}

func (p *exampleMarkerParser) Trigger() []byte { return []byte{'e'} }

func (p *exampleMarkerParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pos > 3 {
		return nil, parser.NoChildren
	}
	if !bytes.HasPrefix(line[pos:], []byte(markerPrefix)) {
		return nil, parser.NoChildren
	}

	title := strings.TrimSpace(string(line[pos+len(markerPrefix):]))
	node := NewExampleMarker(title)

	// Consume the marker line up to the newline so child parsing starts on
	// the next line.
	reader.Advance(segment.Len() - 1)
	return node, parser.HasChildren
}

func (p *exampleMarkerParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	n := node.(*ExampleMarker)

	// The tags option is only recognized on the line immediately following
	// the marker. This is a known limitation: a richer option set would need
	// real option parsing here and in the raw-text detector.
	if !n.optionsScanned {
		n.optionsScanned = true
		if m := tagsOptionPattern.FindSubmatch(bytes.TrimRight(line, "\r\n")); m != nil {
			for _, t := range strings.Split(string(m[1]), ", ") {
				n.Tags.Add(strings.TrimSpace(t))
			}
			reader.Advance(segment.Len() - 1)
			return parser.Continue | parser.HasChildren
		}
	}

	if util.IsBlank(line) {
		return parser.Continue | parser.HasChildren
	}

	indent, _ := util.IndentWidth(line, reader.LineOffset())
	if indent < contentIndent {
		return parser.Close
	}

	pos, padding := util.IndentPosition(line, reader.LineOffset(), contentIndent)
	reader.AdvanceAndSetPadding(pos, padding)
	return parser.Continue | parser.HasChildren
}

func (p *exampleMarkerParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *exampleMarkerParser) CanInterruptParagraph() bool { return true }

func (p *exampleMarkerParser) CanAcceptIndentedLine() bool { return false }
