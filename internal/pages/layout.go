// Package pages models the documents generated for the example index: one
// standalone page per example, one listing page per tag, and a single index
// page. Pages are value objects; tag association is built as an explicit
// second pass rather than by side effects during construction.
package pages

import (
	"path"
	"path/filepath"
	"strings"
)

// PageExt is the source extension of generated stub pages.
const PageExt = ".md"

// Layout computes file paths and docnames for generated pages. Docnames are
// slash-separated source-relative paths without extension, e.g.
// "examples/my-example".
type Layout struct {
	// SourceDir is the site source root on disk.
	SourceDir string

	// Dir is the examples directory name, relative to SourceDir.
	Dir string
}

// ExamplesDir is the on-disk directory that holds all generated pages.
func (l Layout) ExamplesDir() string {
	return filepath.Join(l.SourceDir, filepath.FromSlash(l.Dir))
}

// ExampleDocname returns the docname of a standalone example page.
func (l Layout) ExampleDocname(exampleID string) string {
	return path.Join(l.Dir, exampleID)
}

// TagDocname returns the docname of a tag listing page.
func (l Layout) TagDocname(tagID string) string {
	return path.Join(l.Dir, "tags", tagID)
}

// IndexDocname returns the docname of the index page.
func (l Layout) IndexDocname() string {
	return path.Join(l.Dir, "index")
}

// FilePath maps a docname to its source file path.
func (l Layout) FilePath(docname string) string {
	return filepath.Join(l.SourceDir, filepath.FromSlash(docname)+PageExt)
}

// RelHref computes the relative markdown href from one docname to another,
// e.g. from "examples/foo" to "guide/intro" -> "../guide/intro.md".
func RelHref(fromDocname, toDocname string) string {
	fromDir := path.Dir(fromDocname)
	rel := relPath(fromDir, toDocname)
	return rel + PageExt
}

// relPath computes a slash-separated relative path between docname
// directories without touching the filesystem.
func relPath(fromDir, to string) string {
	if fromDir == "." {
		return to
	}
	fromParts := strings.Split(fromDir, "/")
	toParts := strings.Split(to, "/")

	common := 0
	for common < len(fromParts) && common < len(toParts) && fromParts[common] == toParts[common] {
		common++
	}

	var parts []string
	for i := common; i < len(fromParts); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, toParts[common:]...)
	return path.Join(parts...)
}
