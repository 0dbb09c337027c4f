// Package preview serves the built site locally and rebuilds it whenever a
// source file changes.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/exampleindex/internal/config"
)

// BuildFunc runs one full build of the site.
type BuildFunc func(ctx context.Context) error

// Params configures a preview server.
type Params struct {
	Config *config.Config
	Build  BuildFunc

	// Registry, when non-nil, is exposed at /metrics.
	Registry *prom.Registry
}

// buildStatus tracks the latest build outcome for the status endpoint.
type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	hasGoodBuild bool
}

func (bs *buildStatus) setError(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
}

func (bs *buildStatus) setSuccess() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = nil
	bs.hasGoodBuild = true
}

func (bs *buildStatus) snapshot() (err error, hasGoodBuild bool) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.lastError, bs.hasGoodBuild
}

// Serve builds the site, serves the output directory over HTTP and rebuilds
// on source changes until ctx is canceled.
func Serve(ctx context.Context, p Params) error {
	absSource, err := resolveSourceDir(p.Config)
	if err != nil {
		return err
	}

	status := &buildStatus{}
	if err := p.Build(ctx); err != nil {
		slog.Error("Initial build failed", "error", err)
		status.setError(err)
	} else {
		status.setSuccess()
	}

	server := startHTTPServer(p, status)

	watcher, err := setupFileWatcher(absSource)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	rebuildReq, trigger := setupRebuildDebouncer()
	startRebuildWorker(ctx, p.Build, status, rebuildReq)

	// Generated example stubs land inside the source tree; their events must
	// not retrigger the build that produced them.
	examplesDir := filepath.Join(absSource, p.Config.ExampleIndex.Dir)

	return runPreviewLoop(ctx, watcher, examplesDir, trigger, server)
}

func resolveSourceDir(cfg *config.Config) (string, error) {
	absSource, err := filepath.Abs(cfg.SourceDir)
	if err != nil {
		return "", fmt.Errorf("resolve source dir: %w", err)
	}
	if st, statErr := os.Stat(absSource); statErr != nil || !st.IsDir() {
		return "", fmt.Errorf("source dir not found or not a directory: %s", absSource)
	}
	return absSource, nil
}

func startHTTPServer(p Params, status *buildStatus) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(p.Config.OutputDir)))
	mux.HandleFunc("/healthz", statusHandler(status))
	if p.Registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", p.Config.Preview.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Preview server failed", "error", err)
		}
	}()
	slog.Info("Preview server listening",
		"port", p.Config.Preview.Port,
		"url", fmt.Sprintf("http://localhost:%d", p.Config.Preview.Port))
	return server
}

func statusHandler(status *buildStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		buildErr, hasGoodBuild := status.snapshot()
		body := map[string]any{"ok": buildErr == nil, "served": hasGoodBuild}
		if buildErr != nil {
			body["error"] = buildErr.Error()
			w.WriteHeader(http.StatusInternalServerError)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}
}

func setupFileWatcher(absSource string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if err := addDirsRecursive(watcher, absSource); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return watcher, nil
}

// setupRebuildDebouncer returns a rebuild channel and a trigger that coalesces
// bursts of file events into one request.
func setupRebuildDebouncer() (chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	rebuildReq := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(300*time.Millisecond, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}

	return rebuildReq, trigger
}

// startRebuildWorker processes rebuild requests one at a time; a request
// arriving mid-build queues exactly one follow-up build.
func startRebuildWorker(ctx context.Context, build BuildFunc, status *buildStatus, rebuildReq chan struct{}) {
	var mu sync.Mutex
	running := false
	pending := false

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-rebuildReq:
				if !ok {
					return
				}
				mu.Lock()
				if running {
					pending = true
					mu.Unlock()
					continue
				}
				running = true
				mu.Unlock()

				processRebuild(ctx, build, status)

				mu.Lock()
				running = false
				if pending {
					pending = false
					mu.Unlock()
					select {
					case rebuildReq <- struct{}{}:
					default:
					}
				} else {
					mu.Unlock()
				}
			}
		}
	}()
}

func processRebuild(ctx context.Context, build BuildFunc, status *buildStatus) {
	slog.Info("Change detected; rebuilding site")
	if err := build(ctx); err != nil {
		slog.Warn("Rebuild failed", "error", err)
		status.setError(err)
		return
	}
	status.setSuccess()
}

func runPreviewLoop(ctx context.Context, watcher *fsnotify.Watcher, examplesDir string, trigger func(), server *http.Server) error {
	for {
		select {
		case <-ctx.Done():
			return handleShutdown(server)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			handleFileEvent(watcher, ev, examplesDir, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", "error", err)
		}
	}
}

func handleShutdown(server *http.Server) error {
	slog.Info("Shutting down preview server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Preview server shutdown error", "error", err)
	}

	// The rebuild channel stays open: the worker exits via ctx, and a
	// debounce timer may still fire after this point. Its buffered send just
	// goes nowhere.
	return nil
}

func handleFileEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, examplesDir string, trigger func()) {
	if shouldIgnoreEvent(ev.Name) || underDir(ev.Name, examplesDir) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(watcher, ev.Name)
		}
	}
	slog.Debug("File change detected", "path", ev.Name, "op", ev.Op.String())
	trigger()
}

// underDir reports whether path lies within dir.
func underDir(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("Watch add failed", "dir", path, "error", err)
			}
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for filesystem events that should not
// trigger rebuilds.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}

	// Editor temp/swap files.
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, ".#") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	if base == ".DS_Store" || base == "Thumbs.db" {
		return true
	}

	return false
}
