// Package detect scans raw markdown sources for example markers ahead of the
// main build. Detection is regex-based on the raw text rather than the parsed
// document tree: the preprocessor runs before any parsing has happened, since
// stub pages must exist on disk before the build can pick them up.
package detect

import (
	"fmt"
	"iter"
	"os"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/exampleindex/internal/diag"
	"git.home.luguber.info/inful/exampleindex/internal/identifiers"
	"git.home.luguber.info/inful/exampleindex/internal/util/sets"
)

// examplePattern matches an example marker line and its optional tags option
// line. The option match is scoped to the line immediately following the
// marker; this only works because the marker takes no other options. If a
// richer option set is ever added the detector needs a real parser.
// The line after the marker (or its tags option) is unconstrained: the block
// parser accepts indented body content with no separating blank line, and
// detection has to find every marker the parser would render.
var examplePattern = regexp.MustCompile(
	`(?m)^example:: (?P<title>.+)(\n +tags: +(?P<tags>.+))?$`,
)

// ExampleSource is one detected example occurrence. Records are immutable
// once constructed and live only for a single build invocation.
type ExampleSource struct {
	// Title of the example, trimmed. May be empty for a malformed marker
	// (detection warns but still yields the record).
	Title string

	// Docname of the page the example was found in, e.g. "guide/intro".
	Docname string

	// Tags associated with the example. May be empty.
	Tags sets.Set[string]

	// ExampleID is the slug derived from Title. Not guaranteed unique across
	// documents; the preprocessor rejects collisions.
	ExampleID string
}

// New constructs an ExampleSource, deriving the example ID from the title.
func New(title, docname string, tags sets.Set[string]) ExampleSource {
	if tags == nil {
		tags = sets.New[string]()
	}
	return ExampleSource{
		Title:     title,
		Docname:   docname,
		Tags:      tags,
		ExampleID: identifiers.ExampleID(title),
	}
}

// DocRef is the absolute docname of the origin page, rooted at the source
// directory (e.g. "/guide/intro").
func (s ExampleSource) DocRef() string { return "/" + s.Docname }

// Compare orders two sources by title. All example listings sort with it.
func Compare(a, b ExampleSource) int { return strings.Compare(a.Title, b.Title) }

// Detect yields the examples marked in text, in document order. The sequence
// is restartable; each iteration rescans from the start.
func Detect(text []byte, docname string, rep *diag.Reporter) iter.Seq[ExampleSource] {
	return func(yield func(ExampleSource) bool) {
		for _, m := range examplePattern.FindAllSubmatch(text, -1) {
			title := strings.TrimSpace(string(m[1]))
			if title == "" {
				rep.Warn("could not parse example title from marker",
					"doc", docname, "marker", strings.TrimSpace(string(m[0])))
			}

			tags := sets.New[string]()
			if tagOption := string(m[3]); tagOption != "" {
				for _, t := range strings.Split(tagOption, ", ") {
					tags.Add(strings.TrimSpace(t))
				}
			}

			if !yield(New(title, docname, tags)) {
				return
			}
		}
	}
}

// DetectFile reads a source file and yields its examples. A read failure is
// returned as an error; the caller treats it as fatal to preprocessing.
func DetectFile(path string, docname string, rep *diag.Reporter) (iter.Seq[ExampleSource], error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source document %s: %w", path, err)
	}
	return Detect(text, docname, rep), nil
}
