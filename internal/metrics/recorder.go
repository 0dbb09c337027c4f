// Package metrics defines observability hooks for the build pipeline.
package metrics

import "time"

// Recorder defines observability hooks for build and pipeline-phase metrics.
// The zero-cost NoopRecorder is used when metrics are not configured; the
// preview server installs a PrometheusRecorder.
type Recorder interface {
	ObservePhaseDuration(phase string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome string) // outcome: success|failed
	SetExampleCount(n int)
	IncTransplantResult(success bool)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObservePhaseDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
func (NoopRecorder) SetExampleCount(int)                        {}
func (NoopRecorder) IncTransplantResult(bool)                   {}
