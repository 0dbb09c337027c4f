package site

import "time"

// Report summarizes one build invocation.
type Report struct {
	// BuildID uniquely identifies the invocation in logs.
	BuildID string

	Start    time.Time
	Duration time.Duration

	// Documents is the number of rendered markdown pages.
	Documents int

	// Assets is the number of files copied through unchanged.
	Assets int

	// Warnings and Errors are the non-fatal diagnostic counts; they never
	// affect the build's exit status.
	Warnings int
	Errors   int
}
