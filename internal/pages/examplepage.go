package pages

import (
	"os"

	"git.home.luguber.info/inful/exampleindex/internal/detect"
	"git.home.luguber.info/inful/exampleindex/internal/identifiers"
)

// ExamplePage is the planned standalone page for one detected example.
// Exactly one ExamplePage exists per ExampleSource.
type ExamplePage struct {
	Source detect.ExampleSource

	layout Layout
}

// NewExamplePage plans the standalone page for source.
func NewExamplePage(source detect.ExampleSource, layout Layout) *ExamplePage {
	return &ExamplePage{Source: source, layout: layout}
}

// RelDocref is the page's docname relative to the examples directory.
func (p *ExamplePage) RelDocref() string { return p.Source.ExampleID }

// Docname of the standalone page, e.g. "examples/my-example".
func (p *ExamplePage) Docname() string {
	return p.layout.ExampleDocname(p.Source.ExampleID)
}

// DocRef is the absolute docname, rooted at the source directory.
func (p *ExamplePage) DocRef() string { return "/" + p.Docname() }

// FilePath is where the stub source file is written.
func (p *ExamplePage) FilePath() string {
	return p.layout.FilePath(p.Docname())
}

// CompareExamplePages orders pages by their source title.
func CompareExamplePages(a, b *ExamplePage) int {
	return detect.Compare(a.Source, b.Source)
}

// RenderAndSave renders the stub page and writes it to FilePath.
func (p *ExamplePage) RenderAndSave(r *Renderer, assoc *Associations) error {
	tagLinks := make([]TagLink, 0)
	for _, tp := range assoc.TagPagesFor(p.Source.ExampleID) {
		tagLinks = append(tagLinks, TagLink{
			Name: tp.Name,
			Href: RelHref(p.Docname(), tp.Docname()),
		})
	}

	// Deep link to the marker's anchor on the origin page.
	originHref := RelHref(p.Docname(), p.Source.Docname) + "#" + identifiers.SourceRefID(p.Source.ExampleID)

	content, err := r.Render("examplepage", ExamplePageContext{
		Title:         p.Source.Title,
		ExampleID:     p.Source.ExampleID,
		OriginDocname: p.Source.Docname,
		OriginHref:    originHref,
		Tags:          tagLinks,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(p.FilePath(), []byte(content), 0o644)
}
