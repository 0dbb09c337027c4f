package markdown

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// underlineHeadingTransformer promotes a two-line paragraph whose second line
// is a run of the configured underline character to an H1 heading. Generated
// stub pages write their titles this way (title plus an underline matching
// the title length), and the default underline character '#' is not a setext
// heading marker in CommonMark.
type underlineHeadingTransformer struct {
	char []byte
}

// NewUnderlineHeadingTransformer returns the transformer for the given
// underline character. The character may be multi-byte.
func NewUnderlineHeadingTransformer(char string) parser.ASTTransformer {
	return &underlineHeadingTransformer{char: []byte(char)}
}

// Transform implements parser.ASTTransformer.
func (t *underlineHeadingTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var paragraphs []*ast.Paragraph
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if p, ok := n.(*ast.Paragraph); ok && t.isUnderlined(p, source) {
			paragraphs = append(paragraphs, p)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, p := range paragraphs {
		t.promote(p, source)
	}
}

func (t *underlineHeadingTransformer) isUnderlined(p *ast.Paragraph, source []byte) bool {
	if p.Lines().Len() != 2 {
		return false
	}
	seg := p.Lines().At(1)
	underline := bytes.TrimRight(seg.Value(source), " \r\n")
	if len(t.char) == 0 || len(underline) < 2*len(t.char) || len(underline)%len(t.char) != 0 {
		return false
	}
	return bytes.Equal(underline, bytes.Repeat(t.char, len(underline)/len(t.char)))
}

func (t *underlineHeadingTransformer) promote(p *ast.Paragraph, source []byte) {
	underlineStart := p.Lines().At(1).Start

	heading := ast.NewHeading(1)
	lines := text.NewSegments()
	lines.Append(p.Lines().At(0))
	heading.SetLines(lines)

	// Move the title line's inline children across, dropping the underline
	// text node and the soft line break before it.
	for child := p.FirstChild(); child != nil; {
		next := child.NextSibling()
		if txt, ok := child.(*ast.Text); ok && txt.Segment.Start >= underlineStart {
			child = next
			continue
		}
		heading.AppendChild(heading, child)
		child = next
	}
	if last, ok := heading.LastChild().(*ast.Text); ok {
		last.SetSoftLineBreak(false)
	}

	p.Parent().ReplaceChild(p.Parent(), p, heading)
}
