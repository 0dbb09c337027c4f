package site

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/exampleindex/internal/config"
	"git.home.luguber.info/inful/exampleindex/internal/diag"
	"git.home.luguber.info/inful/exampleindex/internal/markdown"
	"git.home.luguber.info/inful/exampleindex/internal/metrics"
)

// PreBuildHook runs before source discovery. An error aborts the build.
type PreBuildHook func(ctx context.Context) error

// PostBuildHook runs after the main render pass, successful or not. Hooks
// receive the build error (nil on success) and must no-op on failure
// themselves; hook problems never change the build outcome.
type PostBuildHook func(ctx context.Context, buildErr error)

// Builder renders a source tree to HTML. The three pipeline phases
// (pre-build hooks, main render, post-build hooks) are strict barriers.
type Builder struct {
	cfg     *config.Config
	rep     *diag.Reporter
	rec     metrics.Recorder
	md      goldmark.Markdown
	layout  *template.Template
	workers int

	preBuild  []PreBuildHook
	postBuild []PostBuildHook
}

// Option configures a Builder.
type Option func(*Builder)

// WithReporter sets the diagnostic reporter.
func WithReporter(rep *diag.Reporter) Option { return func(b *Builder) { b.rep = rep } }

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option { return func(b *Builder) { b.rec = rec } }

// WithWorkers overrides the render worker count.
func WithWorkers(n int) Option { return func(b *Builder) { b.workers = n } }

// New creates a Builder for cfg.
func New(cfg *config.Config, opts ...Option) (*Builder, error) {
	b := &Builder{
		cfg:     cfg,
		rec:     metrics.NoopRecorder{},
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.rep == nil {
		b.rep = diag.NewReporter(slog.Default())
	}

	b.md = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			&markdown.ExampleIndex{H1Char: cfg.ExampleIndex.H1Char},
		),
		goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
	)

	layout, err := template.New("layout").Parse(layoutTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse layout template: %w", err)
	}
	b.layout = layout
	return b, nil
}

// Format is the output format of this builder. The transplant engine only
// operates on HTML-like formats.
func (b *Builder) Format() string { return "html" }

// Reporter returns the build's diagnostic reporter.
func (b *Builder) Reporter() *diag.Reporter { return b.rep }

// OnPreBuild registers a hook to run before source discovery.
func (b *Builder) OnPreBuild(h PreBuildHook) { b.preBuild = append(b.preBuild, h) }

// OnPostBuild registers a hook to run after the main render pass.
func (b *Builder) OnPostBuild(h PostBuildHook) { b.postBuild = append(b.postBuild, h) }

// Build runs the full pipeline and returns a report. The returned error is
// the main build's error; post-build hook diagnostics do not affect it.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{BuildID: uuid.NewString(), Start: start}

	buildErr := b.runMain(ctx, report)

	// Post-build hooks always run; each checks the build error and the
	// abort signal at its entry point.
	for _, h := range b.postBuild {
		h(ctx, buildErr)
	}

	report.Duration = time.Since(start)
	report.Warnings, report.Errors = b.rep.Counts()
	b.rec.ObserveBuildDuration(report.Duration)

	if buildErr != nil {
		b.rec.IncBuildOutcome("failed")
		return report, buildErr
	}
	b.rec.IncBuildOutcome("success")
	return report, nil
}

func (b *Builder) runMain(ctx context.Context, report *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, h := range b.preBuild {
		phaseStart := time.Now()
		err := h(ctx)
		b.rec.ObservePhaseDuration("preprocess", time.Since(phaseStart))
		if err != nil {
			return fmt.Errorf("pre-build hook: %w", err)
		}
	}

	docs, err := Discover(b.cfg.SourceDir)
	if err != nil {
		return err
	}

	// Full regeneration: the output tree is rebuilt from scratch.
	if err := os.RemoveAll(b.cfg.OutputDir); err != nil {
		return fmt.Errorf("clean output dir: %w", err)
	}
	if err := os.MkdirAll(b.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	renderStart := time.Now()
	err = b.renderAll(ctx, docs, report)
	b.rec.ObservePhaseDuration("render", time.Since(renderStart))
	return err
}

// renderAll renders documents and copies assets on a bounded worker pool.
func (b *Builder) renderAll(ctx context.Context, docs []DocFile, report *Report) error {
	workers := b.workers
	if workers > len(docs) {
		workers = len(docs)
	}
	if workers < 1 {
		workers = 1
	}

	tasks := make(chan DocFile)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	worker := func() {
		defer wg.Done()
		for doc := range tasks {
			select {
			case <-ctx.Done():
				return
			default:
			}
			var err error
			if doc.IsAsset {
				err = b.copyAsset(doc)
			} else {
				err = b.renderDoc(doc)
			}
			mu.Lock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
			} else if doc.IsAsset {
				report.Assets++
			} else {
				report.Documents++
			}
			mu.Unlock()
		}
	}

	wg.Add(workers)
	for range workers {
		go worker()
	}
	// Cancellation empties the pool: workers return on ctx.Done, so the send
	// must never block without also watching for it.
send:
	for _, doc := range docs {
		select {
		case tasks <- doc:
		case <-ctx.Done():
			break send
		}
	}
	close(tasks)
	wg.Wait()

	if firstErr == nil {
		firstErr = ctx.Err()
	}
	return firstErr
}

func (b *Builder) renderDoc(doc DocFile) error {
	source, err := ReadSource(doc)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	if err := b.md.Convert(source, &body); err != nil {
		return fmt.Errorf("render %s: %w", doc.RelativePath, err)
	}

	var page bytes.Buffer
	err = b.layout.Execute(&page, layoutContext{
		SiteTitle: b.cfg.Title,
		PageTitle: filepath.Base(doc.Docname),
		Content:   template.HTML(body.String()),
	})
	if err != nil {
		return fmt.Errorf("apply layout to %s: %w", doc.RelativePath, err)
	}

	outPath := OutputPath(b.cfg.OutputDir, doc.Docname)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(outPath, page.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	slog.Debug("Rendered document", "doc", doc.Docname)
	return nil
}

func (b *Builder) copyAsset(doc DocFile) error {
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return fmt.Errorf("read asset %s: %w", doc.Path, err)
	}
	outPath := filepath.Join(b.cfg.OutputDir, filepath.FromSlash(doc.RelativePath))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}
