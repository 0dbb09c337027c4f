package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	phaseDuration    *prom.HistogramVec
	buildDuration    prom.Histogram
	buildOutcome     *prom.CounterVec
	exampleCount     prom.Gauge
	transplantResult *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
// A nil reg allocates a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		phaseDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "exampleindex",
			Name:      "phase_duration_seconds",
			Help:      "Duration of individual pipeline phases",
			Buckets:   prom.DefBuckets,
		}, []string{"phase"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "exampleindex",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "exampleindex",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		exampleCount: prom.NewGauge(prom.GaugeOpts{
			Namespace: "exampleindex",
			Name:      "examples",
			Help:      "Number of examples detected in the last build",
		}),
		transplantResult: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "exampleindex",
			Name:      "transplant_results_total",
			Help:      "Per-example transplant results",
		}, []string{"result"}),
	}
	reg.MustRegister(
		pr.phaseDuration,
		pr.buildDuration,
		pr.buildOutcome,
		pr.exampleCount,
		pr.transplantResult,
	)
	return pr
}

func (p *PrometheusRecorder) ObservePhaseDuration(phase string, d time.Duration) {
	p.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetExampleCount(n int) {
	p.exampleCount.Set(float64(n))
}

func (p *PrometheusRecorder) IncTransplantResult(success bool) {
	result := "success"
	if !success {
		result = "failed"
	}
	p.transplantResult.WithLabelValues(result).Inc()
}
