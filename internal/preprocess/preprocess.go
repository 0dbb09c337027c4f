// Package preprocess drives example detection and stub page generation. It
// runs as the first pre-build hook: the generated pages must exist on disk
// before the main build discovers its sources.
package preprocess

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/exampleindex/internal/config"
	"git.home.luguber.info/inful/exampleindex/internal/detect"
	"git.home.luguber.info/inful/exampleindex/internal/diag"
	"git.home.luguber.info/inful/exampleindex/internal/pages"
	"git.home.luguber.info/inful/exampleindex/internal/site"
)

// TemplateOverrideDir is the directory under the source root searched for
// project-level page template overrides.
const TemplateOverrideDir = "_templates"

// Index is the example index of one build invocation: every detected example
// and its planned pages. It is created fresh per run (nothing persists
// between builds) and handed to the transplant engine after the main build.
type Index struct {
	Layout       pages.Layout
	ExamplePages []*pages.ExamplePage
	TagPages     []*pages.TagPage
	IndexPage    *pages.IndexPage
	Associations *pages.Associations
}

// Run executes the preprocessing phase. It returns (nil, nil) when the
// extension is disabled. Any source read failure or example ID collision is
// fatal: a partially indexed gallery is worse than none.
func Run(ctx context.Context, cfg *config.Config, rep *diag.Reporter) (*Index, error) {
	if !cfg.ExampleIndex.Enabled {
		slog.Debug("Example index disabled, skipping preprocessing")
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	layout := pages.Layout{SourceDir: cfg.SourceDir, Dir: cfg.ExampleIndex.Dir}

	// Incremental regeneration is not supported: the examples directory is
	// cleared and rebuilt on every run.
	examplesDir := layout.ExamplesDir()
	if err := os.RemoveAll(examplesDir); err != nil {
		return nil, fmt.Errorf("clear examples dir: %w", err)
	}
	if err := os.MkdirAll(examplesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create examples dir: %w", err)
	}

	examplePages, err := detectAll(cfg, layout, rep)
	if err != nil {
		return nil, err
	}

	sort.Slice(examplePages, func(i, j int) bool {
		return pages.CompareExamplePages(examplePages[i], examplePages[j]) < 0
	})

	tagPages, assoc := pages.BuildTagPages(examplePages, layout)

	renderer, err := pages.NewRenderer(
		[]rune(cfg.ExampleIndex.H1Char)[0],
		filepath.Join(cfg.SourceDir, TemplateOverrideDir),
	)
	if err != nil {
		return nil, err
	}

	// Tag pages render first so their association table is complete before
	// example pages reference it; the remaining order just has to be
	// deterministic.
	for _, tp := range tagPages {
		if err := tp.RenderAndSave(renderer); err != nil {
			return nil, fmt.Errorf("render tag page %s: %w", tp.Name, err)
		}
	}
	for _, ep := range examplePages {
		if err := ep.RenderAndSave(renderer, assoc); err != nil {
			return nil, fmt.Errorf("render example page %s: %w", ep.Source.ExampleID, err)
		}
	}
	indexPage := pages.NewIndexPage(examplePages, layout)
	if err := indexPage.RenderAndSave(renderer); err != nil {
		return nil, fmt.Errorf("render index page: %w", err)
	}

	slog.Info("Generated example index pages",
		"examples", len(examplePages), "tags", len(tagPages), "dir", examplesDir)

	return &Index{
		Layout:       layout,
		ExamplePages: examplePages,
		TagPages:     tagPages,
		IndexPage:    indexPage,
		Associations: assoc,
	}, nil
}

// detectAll scans every source document outside the examples directory.
// Example IDs are a project-wide key space: two titles that slugify
// identically would overwrite each other's pages and collide on the origin
// anchor, so collisions fail the run.
func detectAll(cfg *config.Config, layout pages.Layout, rep *diag.Reporter) ([]*pages.ExamplePage, error) {
	docs, err := site.Discover(cfg.SourceDir)
	if err != nil {
		return nil, err
	}

	examplesPrefix := cfg.ExampleIndex.Dir + "/"

	var examplePages []*pages.ExamplePage
	seen := make(map[string]detect.ExampleSource)
	for _, doc := range docs {
		if doc.IsAsset {
			continue
		}
		// Skip anything inside the examples directory: those documents were
		// wiped above, and scanning leftover generated pages would feed the
		// index back into itself.
		if strings.HasPrefix(doc.Docname, examplesPrefix) {
			continue
		}

		seq, err := detect.DetectFile(doc.Path, doc.Docname, rep)
		if err != nil {
			return nil, err
		}
		for src := range seq {
			if prev, ok := seen[src.ExampleID]; ok {
				return nil, fmt.Errorf(
					"example ID %q collides: %q in %s and %q in %s",
					src.ExampleID, prev.Title, prev.Docname, src.Title, src.Docname)
			}
			seen[src.ExampleID] = src
			examplePages = append(examplePages, pages.NewExamplePage(src, layout))
		}
	}
	return examplePages, nil
}
