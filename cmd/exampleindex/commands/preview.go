package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/exampleindex/internal/config"
	"git.home.luguber.info/inful/exampleindex/internal/diag"
	"git.home.luguber.info/inful/exampleindex/internal/metrics"
	"git.home.luguber.info/inful/exampleindex/internal/preview"
)

// PreviewCmd implements the 'preview' command.
type PreviewCmd struct {
	Port    int  `short:"p" help:"Preview server port (overrides config)"`
	Metrics bool `help:"Expose Prometheus metrics at /metrics"`
}

func (p *PreviewCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if p.Port != 0 {
		cfg.Preview.Port = p.Port
	}

	var registry *prom.Registry
	var rec metrics.Recorder = metrics.NoopRecorder{}
	if p.Metrics || cfg.Preview.Metrics {
		registry = prom.NewRegistry()
		rec = metrics.NewPrometheusRecorder(registry)
	}

	rep := diag.NewReporter(g.Logger)
	builder, err := NewPipeline(cfg, rep, rec)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return preview.Serve(ctx, preview.Params{
		Config: cfg,
		Build: func(ctx context.Context) error {
			_, err := builder.Build(ctx)
			return err
		},
		Registry: registry,
	})
}
