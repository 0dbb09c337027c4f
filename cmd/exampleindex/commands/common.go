package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/exampleindex/internal/config"
	"git.home.luguber.info/inful/exampleindex/internal/diag"
	"git.home.luguber.info/inful/exampleindex/internal/metrics"
	"git.home.luguber.info/inful/exampleindex/internal/preprocess"
	"git.home.luguber.info/inful/exampleindex/internal/site"
	"git.home.luguber.info/inful/exampleindex/internal/transplant"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the documentation site"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	List    ListCmd    `cmd:"" help:"List detected examples without building"`
	Preview PreviewCmd `cmd:"" help:"Serve the site locally and rebuild on changes"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// NewPipeline assembles a builder with the example index phases attached:
// preprocessing as a pre-build hook, content transplanting as a post-build
// hook. The index produced by one build's preprocessing feeds that same
// build's transplant; builds run one at a time.
func NewPipeline(cfg *config.Config, rep *diag.Reporter, rec metrics.Recorder) (*site.Builder, error) {
	builder, err := site.New(cfg, site.WithReporter(rep), site.WithRecorder(rec))
	if err != nil {
		return nil, err
	}

	var index *preprocess.Index
	builder.OnPreBuild(func(ctx context.Context) error {
		ix, err := preprocess.Run(ctx, cfg, rep)
		if err != nil {
			return err
		}
		index = ix
		if ix != nil {
			rec.SetExampleCount(len(ix.ExamplePages))
		}
		return nil
	})
	builder.OnPostBuild(func(ctx context.Context, buildErr error) {
		transplant.Run(ctx, buildErr, transplant.Params{
			Index:     index,
			Format:    builder.Format(),
			OutputDir: cfg.OutputDir,
			Reporter:  rep,
			Recorder:  rec,
		})
	})
	return builder, nil
}
