package transplant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/exampleindex/internal/detect"
	"git.home.luguber.info/inful/exampleindex/internal/diag"
	"git.home.luguber.info/inful/exampleindex/internal/metrics"
	"git.home.luguber.info/inful/exampleindex/internal/pages"
	"git.home.luguber.info/inful/exampleindex/internal/preprocess"
)

const originHTML = `<!DOCTYPE html>
<html><head><title>Intro</title></head><body>
<h2 id="setup">Setup</h2>
<div class="example-index-source" id="example-src-demo">
<p>See <a href="#setup">setup</a> and <a href="#inner">inner</a>.</p>
<p id="inner">Inner target.</p>
<p><a href="../other/page.html">other page</a></p>
<p><img src="images/pic.png" alt="pic"></p>
<p><a href=".//generated/plot.png">plot</a></p>
<p><a href="https://example.com/x">external</a></p>
<p><a href="mailto:docs@example.com">mail</a></p>
</div>
<p>After.</p>
</body></html>
`

const destHTML = `<!DOCTYPE html>
<html><head><title>Demo</title></head><body>
<h1>Demo</h1>
<div class="example-index-content" id="demo"></div>
</body></html>
`

func newReporter() *diag.Reporter {
	return diag.NewReporter(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func demoIndex(outputDir string) *preprocess.Index {
	layout := pages.Layout{SourceDir: outputDir, Dir: "examples"}
	ep := pages.NewExamplePage(detect.New("Demo", "guide/intro", nil), layout)
	return &preprocess.Index{Layout: layout, ExamplePages: []*pages.ExamplePage{ep}}
}

func runParams(outputDir string, rep *diag.Reporter) Params {
	return Params{
		Index:     demoIndex(outputDir),
		Format:    "html",
		OutputDir: outputDir,
		Reporter:  rep,
		Workers:   1,
	}
}

func TestRunTransplantsFragment(t *testing.T) {
	out := t.TempDir()
	writeFile(t, filepath.Join(out, "guide", "intro.html"), originHTML)
	writeFile(t, filepath.Join(out, "examples", "demo.html"), destHTML)

	rep := newReporter()
	Run(context.Background(), nil, runParams(out, rep))

	_, errs := rep.Counts()
	require.Zero(t, errs)

	result, err := os.ReadFile(filepath.Join(out, "examples", "demo.html"))
	require.NoError(t, err)
	text := string(result)

	// Content arrived, wrapper and placeholder are gone.
	require.Contains(t, text, `<p id="inner">Inner target.</p>`)
	require.NotContains(t, text, "example-index-source")
	require.NotContains(t, text, `<div class="example-index-content" id="demo"></div>`)

	// Anchor whose target stayed on the origin page points back there.
	require.Contains(t, text, `href="../guide/intro.html#setup"`)
	// Anchor whose target traveled with the fragment is untouched.
	require.Contains(t, text, `href="#inner"`)
	// Relative link and image rebased from guide/ to examples/.
	require.Contains(t, text, `href="../other/page.html"`)
	require.Contains(t, text, `src="../guide/images/pic.png"`)
	// Site-root-relative link resolved against the build root.
	require.Contains(t, text, `href="../generated/plot.png"`)
	// External links untouched.
	require.Contains(t, text, `href="https://example.com/x"`)
	require.Contains(t, text, `href="mailto:docs@example.com"`)

	// The origin page keeps its inline copy.
	origin, err := os.ReadFile(filepath.Join(out, "guide", "intro.html"))
	require.NoError(t, err)
	require.Contains(t, string(origin), "example-index-source")
}

func TestRunMissingWrapperFallsBack(t *testing.T) {
	out := t.TempDir()
	writeFile(t, filepath.Join(out, "guide", "intro.html"),
		"<!DOCTYPE html><html><body><p>No example here.</p></body></html>\n")
	writeFile(t, filepath.Join(out, "examples", "demo.html"), destHTML)

	rep := newReporter()
	Run(context.Background(), nil, runParams(out, rep))

	_, errs := rep.Counts()
	require.Equal(t, 1, errs)

	result, err := os.ReadFile(filepath.Join(out, "examples", "demo.html"))
	require.NoError(t, err)
	text := string(result)
	require.Contains(t, text, "<strong>Warning:</strong>")
	require.Contains(t, text, "example demo was not found")
}

func TestRunMissingPlaceholderSkips(t *testing.T) {
	out := t.TempDir()
	writeFile(t, filepath.Join(out, "guide", "intro.html"), originHTML)
	writeFile(t, filepath.Join(out, "examples", "demo.html"),
		"<!DOCTYPE html><html><body><h1>Demo</h1></body></html>\n")

	rep := newReporter()
	Run(context.Background(), nil, runParams(out, rep))

	_, errs := rep.Counts()
	require.Equal(t, 1, errs)

	// Destination left as-is.
	result, err := os.ReadFile(filepath.Join(out, "examples", "demo.html"))
	require.NoError(t, err)
	require.NotContains(t, string(result), "Inner target")
}

func TestRunContinuesAfterPerExampleFailure(t *testing.T) {
	out := t.TempDir()
	layout := pages.Layout{SourceDir: out, Dir: "examples"}
	ix := &preprocess.Index{
		Layout: layout,
		ExamplePages: []*pages.ExamplePage{
			pages.NewExamplePage(detect.New("Broken", "guide/intro", nil), layout),
			pages.NewExamplePage(detect.New("Demo", "guide/intro", nil), layout),
		},
	}

	writeFile(t, filepath.Join(out, "guide", "intro.html"), originHTML)
	writeFile(t, filepath.Join(out, "examples", "demo.html"), destHTML)
	// "Broken" has a stub but no wrapper on the origin page.
	writeFile(t, filepath.Join(out, "examples", "broken.html"),
		`<!DOCTYPE html><html><body><div class="example-index-content" id="broken"></div></body></html>`)

	rep := newReporter()
	Run(context.Background(), nil, Params{
		Index: ix, Format: "html", OutputDir: out, Reporter: rep, Workers: 1,
	})

	// "Broken" got a fallback, "Demo" still transplanted fine.
	broken, err := os.ReadFile(filepath.Join(out, "examples", "broken.html"))
	require.NoError(t, err)
	require.Contains(t, string(broken), "example broken was not found")

	demo, err := os.ReadFile(filepath.Join(out, "examples", "demo.html"))
	require.NoError(t, err)
	require.Contains(t, string(demo), "Inner target")
}

func TestRunNoOpConditions(t *testing.T) {
	out := t.TempDir()
	writeFile(t, filepath.Join(out, "guide", "intro.html"), originHTML)
	writeFile(t, filepath.Join(out, "examples", "demo.html"), destHTML)

	unchanged := func(t *testing.T) {
		t.Helper()
		result, err := os.ReadFile(filepath.Join(out, "examples", "demo.html"))
		require.NoError(t, err)
		require.Equal(t, destHTML, string(result))
	}

	rep := newReporter()

	t.Run("build failed", func(t *testing.T) {
		Run(context.Background(), errors.New("build failed"), runParams(out, rep))
		unchanged(t)
	})
	t.Run("disabled", func(t *testing.T) {
		p := runParams(out, rep)
		p.Index = nil
		Run(context.Background(), nil, p)
		unchanged(t)
	})
	t.Run("non-html format", func(t *testing.T) {
		p := runParams(out, rep)
		p.Format = "latex"
		Run(context.Background(), nil, p)
		unchanged(t)
	})
	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Run(ctx, nil, runParams(out, rep))
		unchanged(t)
	})

	_, errs := rep.Counts()
	require.Zero(t, errs)
}

// cancelingRecorder cancels the run's context after the first transplant
// completes.
type cancelingRecorder struct {
	metrics.NoopRecorder
	cancel context.CancelFunc
	once   sync.Once
}

func (r *cancelingRecorder) IncTransplantResult(bool) { r.once.Do(r.cancel) }

func TestRunCanceledMidRunReturns(t *testing.T) {
	out := t.TempDir()
	layout := pages.Layout{SourceDir: out, Dir: "examples"}

	var eps []*pages.ExamplePage
	for _, title := range []string{"Alpha", "Beta", "Gamma", "Delta"} {
		ep := pages.NewExamplePage(detect.New(title, "guide/intro", nil), layout)
		eps = append(eps, ep)
		writeFile(t, filepath.Join(out, "examples", ep.Source.ExampleID+".html"),
			fmt.Sprintf(`<!DOCTYPE html><html><body><div class="example-index-content" id=%q></div></body></html>`,
				ep.Source.ExampleID))
	}
	writeFile(t, filepath.Join(out, "guide", "intro.html"), originHTML)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// With a single worker, cancellation after the first example leaves the
	// remaining tasks unsent; handing them off must not block forever.
	done := make(chan struct{})
	go func() {
		Run(ctx, nil, Params{
			Index:     &preprocess.Index{Layout: layout, ExamplePages: eps},
			Format:    "html",
			OutputDir: out,
			Reporter:  newReporter(),
			Recorder:  &cancelingRecorder{cancel: cancel},
			Workers:   1,
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestAdaptRelativeURLsPreservesFragments(t *testing.T) {
	frag, err := html.Parse(bytes.NewReader([]byte(
		`<div id="root"><a href="../api/ref.html#method">ref</a></div>`)))
	require.NoError(t, err)

	adaptRelativeURLs(frag,
		filepath.FromSlash("/out"),
		filepath.FromSlash("/out/guide/intro.html"),
		filepath.FromSlash("/out/examples/demo.html"))

	var buf bytes.Buffer
	require.NoError(t, html.Render(&buf, frag))
	require.Contains(t, buf.String(), `href="../api/ref.html#method"`)
}

func TestFallbackFragmentShape(t *testing.T) {
	frag := fallbackFragment("my-example")
	require.Equal(t, "my-example", getAttr(frag, "id"))
	require.True(t, hasClass(frag, "example-index-content"))

	var buf bytes.Buffer
	require.NoError(t, html.Render(&buf, frag))
	require.Contains(t, buf.String(), "example my-example was not found")
}

func TestRebase(t *testing.T) {
	from := filepath.FromSlash("/out/guide")
	to := filepath.FromSlash("/out/examples")
	require.Equal(t, "../guide/images/pic.png", rebase("images/pic.png", from, to))
	require.Equal(t, "../other/page.html", rebase("../other/page.html", from, to))
	require.Equal(t, "intro.html", rebase("../examples/intro.html", from, to))
}

func TestUnwrapKeepsChildren(t *testing.T) {
	doc, err := html.Parse(bytes.NewReader([]byte(
		`<div id="outer"><div id="wrap"><p>one</p><p>two</p></div></div>`)))
	require.NoError(t, err)

	var wrap *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if n.Type == html.ElementNode && getAttr(n, "id") == "wrap" {
			wrap = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)
	require.NotNil(t, wrap)
	unwrap(wrap)

	var buf bytes.Buffer
	require.NoError(t, html.Render(&buf, doc))
	out := buf.String()
	require.NotContains(t, out, `id="wrap"`)
	require.True(t, strings.Contains(out, "<p>one</p><p>two</p>"))
}
