// Package diag provides a build-scoped diagnostic reporter. Example-index
// problems fall into two non-fatal classes (warnings for parse issues, errors
// for per-example transplant failures); both are logged and counted but never
// change the build's exit status. Fatal conditions are returned as plain
// errors by the components themselves.
package diag

import (
	"log/slog"
	"sync"
)

// Reporter counts and logs diagnostics for one build invocation. Child
// reporters created with Component share the parent's counters, so a single
// Reporter instance summarizes the whole run. Safe for concurrent use.
type Reporter struct {
	logger *slog.Logger

	mu       *sync.Mutex
	warnings *int
	errors   *int
}

// NewReporter creates a Reporter logging through logger. A nil logger uses
// slog.Default().
func NewReporter(logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	var w, e int
	return &Reporter{
		logger:   logger,
		mu:       &sync.Mutex{},
		warnings: &w,
		errors:   &e,
	}
}

// Component returns a child reporter whose log records carry a component
// attribute. Counters are shared with the parent.
func (r *Reporter) Component(name string) *Reporter {
	return &Reporter{
		logger:   r.logger.With("component", name),
		mu:       r.mu,
		warnings: r.warnings,
		errors:   r.errors,
	}
}

// Warn records a non-fatal warning.
func (r *Reporter) Warn(msg string, args ...any) {
	r.mu.Lock()
	*r.warnings++
	r.mu.Unlock()
	r.logger.Warn(msg, args...)
}

// Error records a non-fatal per-example error.
func (r *Reporter) Error(msg string, args ...any) {
	r.mu.Lock()
	*r.errors++
	r.mu.Unlock()
	r.logger.Error(msg, args...)
}

// Counts returns the number of warnings and errors recorded so far.
func (r *Reporter) Counts() (warnings, errors int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.warnings, *r.errors
}
