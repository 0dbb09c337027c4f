package pages

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/exampleindex/internal/identifiers"
	"git.home.luguber.info/inful/exampleindex/internal/util/sets"
)

// TagPage is the planned listing page for one tag value. Its example list
// preserves the order of the pages it was built from.
type TagPage struct {
	// Name is the tag literal as written in the source.
	Name string

	layout   Layout
	examples []*ExamplePage
}

// Examples returns the example pages carrying this tag, in input order.
func (t *TagPage) Examples() []*ExamplePage { return t.examples }

// TagID is the URL-safe slug of the tag name.
func (t *TagPage) TagID() string { return identifiers.TagID(t.Name) }

// Docname of the tag page, e.g. "examples/tags/my-tag".
func (t *TagPage) Docname() string { return t.layout.TagDocname(t.TagID()) }

// DocRef is the absolute docname, rooted at the source directory.
func (t *TagPage) DocRef() string { return "/" + t.Docname() }

// FilePath is where the stub source file is written.
func (t *TagPage) FilePath() string { return t.layout.FilePath(t.Docname()) }

// CompareTagPages orders tag pages by name.
func CompareTagPages(a, b *TagPage) int { return strings.Compare(a.Name, b.Name) }

// Associations is the explicit example<->tag association table, built once
// after all pages are constructed. It replaces mutation of pages during tag
// page construction: look-ups go through the table instead of back-pointers.
type Associations struct {
	tagPagesByExample map[string][]*TagPage
}

// TagPagesFor returns the tag pages associated with an example, sorted by
// tag name.
func (a *Associations) TagPagesFor(exampleID string) []*TagPage {
	return a.tagPagesByExample[exampleID]
}

// BuildTagPages constructs one TagPage per distinct tag across all example
// pages, in lexicographic tag-name order, along with the association table.
func BuildTagPages(examplePages []*ExamplePage, layout Layout) ([]*TagPage, *Associations) {
	tagSet := sets.New[string]()
	for _, p := range examplePages {
		tagSet.Union(p.Source.Tags)
	}

	assoc := &Associations{tagPagesByExample: make(map[string][]*TagPage)}

	tagPages := make([]*TagPage, 0, len(tagSet))
	for _, name := range sets.Sorted(tagSet) {
		tp := &TagPage{Name: name, layout: layout}
		for _, p := range examplePages {
			if p.Source.Tags.Has(name) {
				tp.examples = append(tp.examples, p)
				assoc.tagPagesByExample[p.Source.ExampleID] = append(
					assoc.tagPagesByExample[p.Source.ExampleID], tp)
			}
		}
		tagPages = append(tagPages, tp)
	}

	// Tag names are visited in sorted order, so each example's tag page list
	// is already sorted by name. Keep the sort explicit anyway: the invariant
	// belongs here, not to the visiting order above.
	for id := range assoc.tagPagesByExample {
		list := assoc.tagPagesByExample[id]
		sort.Slice(list, func(i, j int) bool { return CompareTagPages(list[i], list[j]) < 0 })
	}

	return tagPages, assoc
}

// RenderAndSave renders the tag listing page and writes it to FilePath,
// creating the tags directory if needed.
func (t *TagPage) RenderAndSave(r *Renderer) error {
	links := make([]ExampleLink, 0, len(t.examples))
	for _, p := range t.examples {
		links = append(links, ExampleLink{
			Title: p.Source.Title,
			Href:  RelHref(t.Docname(), p.Docname()),
		})
	}

	content, err := r.Render("tagpage", TagPageContext{
		Title:    "Examples tagged " + t.Name,
		TagName:  t.Name,
		Examples: links,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(t.FilePath()), 0o755); err != nil {
		return err
	}
	return os.WriteFile(t.FilePath(), []byte(content), 0o644)
}
