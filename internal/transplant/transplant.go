// Package transplant relocates rendered example fragments from their origin
// pages into the generated standalone pages, after the main build. It only
// ever edits built HTML: the origin pages keep their inline copy, the
// standalone pages trade their placeholder for the extracted content.
package transplant

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/exampleindex/internal/diag"
	"git.home.luguber.info/inful/exampleindex/internal/identifiers"
	"git.home.luguber.info/inful/exampleindex/internal/metrics"
	"git.home.luguber.info/inful/exampleindex/internal/pages"
	"git.home.luguber.info/inful/exampleindex/internal/preprocess"
	"git.home.luguber.info/inful/exampleindex/internal/site"
)

// Params configures a post-build transplant run.
type Params struct {
	// Index is the example index produced by preprocessing; nil means the
	// extension was disabled.
	Index *preprocess.Index

	// Format is the builder's output format; anything but "html" no-ops.
	Format string

	// OutputDir is the build output root.
	OutputDir string

	Reporter *diag.Reporter
	Recorder metrics.Recorder

	// Workers bounds transplant parallelism; 0 means NumCPU.
	Workers int
}

// Run executes the transplant phase. It is a silent no-op when the build
// failed, the extension is disabled, the output format is not HTML or the
// build was aborted. Per-example failures are reported as diagnostics and
// never abort the remaining examples.
//
// Run must operate on a fresh main-build output: re-running it against
// already-spliced pages finds no placeholders and logs errors.
func Run(ctx context.Context, buildErr error, p Params) {
	if buildErr != nil || p.Index == nil || p.Format != "html" || ctx.Err() != nil {
		return
	}
	if p.Recorder == nil {
		p.Recorder = metrics.NoopRecorder{}
	}
	if p.Reporter == nil {
		p.Reporter = diag.NewReporter(slog.Default())
	}
	rep := p.Reporter.Component("transplant")

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(p.Index.ExamplePages) {
		workers = len(p.Index.ExamplePages)
	}
	if workers < 1 {
		workers = 1
	}

	// Each transplant reads one origin file and writes one distinct
	// destination file, so examples process independently.
	tasks := make(chan *pages.ExamplePage)
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for ep := range tasks {
				select {
				case <-ctx.Done():
					return
				default:
				}
				p.Recorder.IncTransplantResult(transplantOne(ep, p, rep))
			}
		}()
	}
	// Workers return on ctx.Done; sending without watching for it would
	// block forever once the pool has emptied.
send:
	for _, ep := range p.Index.ExamplePages {
		select {
		case tasks <- ep:
		case <-ctx.Done():
			break send
		}
	}
	close(tasks)
	wg.Wait()
}

// transplantOne moves one example's rendered fragment into its standalone
// page. Returns false when a diagnostic was recorded.
func transplantOne(ep *pages.ExamplePage, p Params, rep *diag.Reporter) bool {
	exampleID := ep.Source.ExampleID
	originPath := site.OutputPath(p.OutputDir, ep.Source.Docname)
	destPath := site.OutputPath(p.OutputDir, ep.Docname())
	slog.Debug("Transplanting example", "example", exampleID, "from", originPath, "to", destPath)

	ok := true
	fragment, err := extractExample(exampleID, originPath)
	if err != nil {
		rep.Error("could not extract example from origin page",
			"example", exampleID, "origin", originPath, "error", err)
		fragment = fallbackFragment(exampleID)
		ok = false
	}

	if err := insertInExamplePage(exampleID, fragment, destPath, originPath, p.OutputDir, rep); err != nil {
		return false
	}
	return ok
}

// extractExample parses the origin page and detaches the example's wrapper
// div, identified by the source ref ID and the wrapper class.
func extractExample(exampleID, originPath string) (*html.Node, error) {
	data, err := os.ReadFile(originPath)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", originPath, err)
	}

	div := findDiv(doc, identifiers.SourceRefID(exampleID), identifiers.SourceClass)
	if div == nil {
		return nil, fmt.Errorf("no wrapper div for example %s", exampleID)
	}
	detach(div)
	return div, nil
}

// fallbackFragment substitutes for an example whose wrapper went missing, so
// the standalone page still carries a visible notice instead of a dangling
// placeholder.
func fallbackFragment(exampleID string) *html.Node {
	div := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: "class", Val: identifiers.ContentClass},
			{Key: "id", Val: exampleID},
		},
	}
	p := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
	strong := &html.Node{Type: html.ElementNode, Data: "strong", DataAtom: atom.Strong}
	strong.AppendChild(&html.Node{Type: html.TextNode, Data: "Warning:"})
	p.AppendChild(strong)
	p.AppendChild(&html.Node{
		Type: html.TextNode,
		Data: fmt.Sprintf(" example %s was not found.", exampleID),
	})
	div.AppendChild(p)
	return div
}

// insertInExamplePage splices the fragment over the placeholder div in the
// standalone page, rewriting the fragment's relative links first.
func insertInExamplePage(exampleID string, fragment *html.Node, destPath, originPath, rootDir string, rep *diag.Reporter) error {
	adaptRelativeURLs(fragment, rootDir, originPath, destPath)

	data, err := os.ReadFile(destPath)
	if err != nil {
		rep.Error("could not read standalone example page",
			"example", exampleID, "dest", destPath, "error", err)
		return err
	}
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		rep.Error("could not parse standalone example page",
			"example", exampleID, "dest", destPath, "error", err)
		return err
	}

	placeholder := findDiv(doc, exampleID, identifiers.ContentClass)
	if placeholder == nil {
		rep.Error("standalone example page has no placeholder div; skipping",
			"example", exampleID, "dest", destPath)
		return fmt.Errorf("no placeholder for example %s", exampleID)
	}
	replaceNode(placeholder, fragment)

	// The spliced-in wrapper div is an artifact of copying rather than
	// moving; unwrap it so the destination carries the content directly.
	if wrapper := findDiv(doc, identifiers.SourceRefID(exampleID), identifiers.SourceClass); wrapper != nil {
		unwrap(wrapper)
	}

	var out bytes.Buffer
	if err := html.Render(&out, doc); err != nil {
		rep.Error("could not serialize standalone example page",
			"example", exampleID, "dest", destPath, "error", err)
		return err
	}
	if err := os.WriteFile(destPath, out.Bytes(), 0o644); err != nil {
		rep.Error("could not write standalone example page",
			"example", exampleID, "dest", destPath, "error", err)
		return err
	}
	return nil
}
