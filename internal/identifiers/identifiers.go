// Package identifiers holds the shared ID and class-name vocabulary used by the
// marker extension, the preprocessor and the transplant engine. The wrapper and
// placeholder class names are a wire-level contract: the marker emits them into
// built HTML and the transplant engine locates content by them. Changing either
// constant breaks extraction.
package identifiers

import (
	"github.com/gosimple/slug"
	"golang.org/x/text/unicode/norm"
)

const (
	// SourceClass is the class of the <div> wrapping an example's rendered
	// content on its origin page.
	SourceClass = "example-index-source"

	// ContentClass is the class of the placeholder <div> on a generated
	// standalone example page.
	ContentClass = "example-index-content"

	// sourceRefPrefix distinguishes the anchor on the origin page from a
	// reference to the standalone example page.
	sourceRefPrefix = "example-src-"
)

// ExampleID derives the URL-safe example ID from a title. The derivation is
// deterministic and Unicode-normalizing: accented characters fold to ASCII, so
// "Title of an éxample" and "Title of an example" collide by design (title is a
// project-wide key space; the preprocessor rejects collisions).
func ExampleID(title string) string {
	return slug.Make(norm.NFC.String(title))
}

// SourceRefID maps an example ID to the anchor ID used on the origin page.
func SourceRefID(exampleID string) string {
	return sourceRefPrefix + exampleID
}

// TitleToSourceRefID maps a title directly to the origin-page anchor ID.
func TitleToSourceRefID(title string) string {
	return SourceRefID(ExampleID(title))
}

// TagID derives the URL-safe slug for a tag name, used in tag page paths.
func TagID(name string) string {
	return slug.Make(norm.NFC.String(name))
}
