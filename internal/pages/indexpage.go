package pages

import "os"

// IndexPage lists all example pages. Exactly one exists per build.
type IndexPage struct {
	layout   Layout
	examples []*ExamplePage
}

// NewIndexPage plans the index page over the given example pages.
func NewIndexPage(examplePages []*ExamplePage, layout Layout) *IndexPage {
	return &IndexPage{layout: layout, examples: examplePages}
}

// Docname of the index page, e.g. "examples/index".
func (p *IndexPage) Docname() string { return p.layout.IndexDocname() }

// DocRef is the absolute docname, rooted at the source directory.
func (p *IndexPage) DocRef() string { return "/" + p.Docname() }

// FilePath is where the stub source file is written.
func (p *IndexPage) FilePath() string { return p.layout.FilePath(p.Docname()) }

// RenderAndSave renders the index page and writes it to FilePath.
func (p *IndexPage) RenderAndSave(r *Renderer) error {
	links := make([]ExampleLink, 0, len(p.examples))
	for _, ep := range p.examples {
		links = append(links, ExampleLink{
			Title: ep.Source.Title,
			Href:  RelHref(p.Docname(), ep.Docname()),
		})
	}

	content, err := r.Render("indexpage", IndexPageContext{
		Title:    "Example index",
		Examples: links,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(p.FilePath(), []byte(content), 0o644)
}
