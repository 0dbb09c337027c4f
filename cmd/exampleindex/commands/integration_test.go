package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/exampleindex/internal/config"
)

const introDoc = `# Intro

Getting started guide.

example:: Connect to the server
    tags: networking

    Connect like this.

    ![diagram](images/net.png)

    See [the API](ref.md#connect) for details.

More prose after the example.
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		Title:     "Test Site",
		SourceDir: filepath.Join(root, "docs"),
		OutputDir: filepath.Join(root, "site"),
		ExampleIndex: config.ExampleIndexConfig{
			Enabled: true,
			Dir:     "examples",
			H1Char:  "#",
		},
	}
}

// TestRunBuildFullPipeline drives a complete build: detection, stub
// generation, markdown rendering and content transplanting.
func TestRunBuildFullPipeline(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.SourceDir, "guide", "intro.md"), introDoc)
	writeFile(t, filepath.Join(cfg.SourceDir, "guide", "images", "net.png"), "not-a-real-png")

	require.NoError(t, RunBuild(context.Background(), cfg))

	// The origin page keeps its inline copy of the example, wrapped and
	// anchored.
	origin, err := os.ReadFile(filepath.Join(cfg.OutputDir, "guide", "intro.html"))
	require.NoError(t, err)
	originText := string(origin)
	require.Contains(t, originText, `class="example-index-source"`)
	require.Contains(t, originText, `id="example-src-connect-to-the-server"`)
	require.Contains(t, originText, "Connect like this.")
	require.Contains(t, originText, "More prose after the example.")

	// The standalone page received the rendered content with rebased links.
	standalone, err := os.ReadFile(filepath.Join(cfg.OutputDir, "examples", "connect-to-the-server.html"))
	require.NoError(t, err)
	text := string(standalone)
	require.Contains(t, text, "<h1>Connect to the server</h1>")
	require.Contains(t, text, "Connect like this.")
	require.Contains(t, text, `src="../guide/images/net.png"`)
	require.Contains(t, text, `href="../guide/ref.html#connect"`)
	require.Contains(t, text, `href="../guide/intro.html#example-src-connect-to-the-server"`)
	require.NotContains(t, text, `<div class="example-index-content" id="connect-to-the-server"></div>`)
	require.NotContains(t, text, "example-index-source")

	// Tag and index pages made it through the main build.
	tagPage, err := os.ReadFile(filepath.Join(cfg.OutputDir, "examples", "tags", "networking.html"))
	require.NoError(t, err)
	require.Contains(t, string(tagPage), `href="../connect-to-the-server.html"`)

	indexPage, err := os.ReadFile(filepath.Join(cfg.OutputDir, "examples", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(indexPage), `href="connect-to-the-server.html"`)

	// The image asset was copied into the output tree.
	_, err = os.Stat(filepath.Join(cfg.OutputDir, "guide", "images", "net.png"))
	require.NoError(t, err)
}

// TestRunBuildDisabledExtension builds a plain site without touching the
// source tree.
func TestRunBuildDisabledExtension(t *testing.T) {
	cfg := testConfig(t)
	cfg.ExampleIndex.Enabled = false
	writeFile(t, filepath.Join(cfg.SourceDir, "guide", "intro.md"), introDoc)

	require.NoError(t, RunBuild(context.Background(), cfg))

	_, err := os.Stat(filepath.Join(cfg.SourceDir, "examples"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(cfg.OutputDir, "examples"))
	require.True(t, os.IsNotExist(err))

	// The marker renders as its wrapper div even without the index.
	origin, readErr := os.ReadFile(filepath.Join(cfg.OutputDir, "guide", "intro.html"))
	require.NoError(t, readErr)
	require.Contains(t, string(origin), `class="example-index-source"`)
}

// TestRunBuildIsRepeatable exercises the regeneration contract: a second
// build from the same sources reaches the same end state.
func TestRunBuildIsRepeatable(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.SourceDir, "guide", "intro.md"), introDoc)

	require.NoError(t, RunBuild(context.Background(), cfg))
	first, err := os.ReadFile(filepath.Join(cfg.OutputDir, "examples", "connect-to-the-server.html"))
	require.NoError(t, err)

	require.NoError(t, RunBuild(context.Background(), cfg))
	second, err := os.ReadFile(filepath.Join(cfg.OutputDir, "examples", "connect-to-the-server.html"))
	require.NoError(t, err)
	require.Equal(t, string(first), string(second))
}

func TestRunList(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.SourceDir, "guide", "intro.md"), introDoc)
	writeFile(t, filepath.Join(cfg.SourceDir, "misc.md"), "example:: Untagged one\n\n    Body.\n")

	var out bytes.Buffer
	require.NoError(t, RunList(&out, cfg, ""))
	text := out.String()
	require.Contains(t, text, "guide/intro\tConnect to the server\t[networking]")
	require.Contains(t, text, "misc\tUntagged one")

	out.Reset()
	require.NoError(t, RunList(&out, cfg, "networking"))
	require.Contains(t, out.String(), "Connect to the server")
	require.NotContains(t, out.String(), "Untagged one")
}
