package commands

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/exampleindex/internal/config"
	"git.home.luguber.info/inful/exampleindex/internal/diag"
	"git.home.luguber.info/inful/exampleindex/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Output directory for the generated site (overrides config)"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if b.Output != "" {
		cfg.OutputDir = b.Output
	}
	return RunBuild(context.Background(), cfg)
}

// RunBuild performs one full build of the site.
func RunBuild(ctx context.Context, cfg *config.Config) error {
	slog.Info("Starting site build",
		"source", cfg.SourceDir,
		"output", cfg.OutputDir,
		"example_index", cfg.ExampleIndex.Enabled)

	rep := diag.NewReporter(slog.Default())
	builder, err := NewPipeline(cfg, rep, metrics.NoopRecorder{})
	if err != nil {
		return err
	}

	report, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	slog.Info("Site build finished",
		"build_id", report.BuildID,
		"documents", report.Documents,
		"assets", report.Assets,
		"warnings", report.Warnings,
		"errors", report.Errors,
		"duration", report.Duration)

	fmt.Println("Build completed successfully")
	return nil
}
