package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"git.home.luguber.info/inful/exampleindex/internal/config"
	"git.home.luguber.info/inful/exampleindex/internal/detect"
	"git.home.luguber.info/inful/exampleindex/internal/diag"
	"git.home.luguber.info/inful/exampleindex/internal/site"
	"git.home.luguber.info/inful/exampleindex/internal/util/sets"
)

// ListCmd implements the 'list' command: a dry run of example detection.
type ListCmd struct {
	Tag string `short:"t" help:"Only list examples carrying this tag"`
}

func (l *ListCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return RunList(os.Stdout, cfg, l.Tag)
}

// RunList scans the source tree and writes one line per detected example.
// Unlike a build it never touches the filesystem beyond reading sources, so
// it also works with the extension disabled.
func RunList(w io.Writer, cfg *config.Config, tag string) error {
	rep := diag.NewReporter(slog.Default())

	docs, err := site.Discover(cfg.SourceDir)
	if err != nil {
		return err
	}

	examplesPrefix := cfg.ExampleIndex.Dir + "/"
	count := 0
	for _, doc := range docs {
		if doc.IsAsset || strings.HasPrefix(doc.Docname, examplesPrefix) {
			continue
		}
		seq, err := detect.DetectFile(doc.Path, doc.Docname, rep)
		if err != nil {
			return err
		}
		for src := range seq {
			if tag != "" && !src.Tags.Has(tag) {
				continue
			}
			count++
			if len(src.Tags) > 0 {
				fmt.Fprintf(w, "%s\t%s\t[%s]\n",
					src.Docname, src.Title, strings.Join(sets.Sorted(src.Tags), ", "))
			} else {
				fmt.Fprintf(w, "%s\t%s\n", src.Docname, src.Title)
			}
		}
	}

	slog.Info("Example detection completed", "examples", count)
	return nil
}
