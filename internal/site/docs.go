// Package site is the host build engine: it discovers markdown sources,
// renders them to HTML with goldmark and runs the example index's pre- and
// post-build hooks around the main render pass.
package site

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SourceExt is the extension of renderable source documents.
const SourceExt = ".md"

// OutputExt is the extension of built pages.
const OutputExt = ".html"

// DocFile is a discovered source file. Non-markdown files are assets and are
// copied through to the output unchanged.
type DocFile struct {
	Path         string // absolute path to the source file
	RelativePath string // slash-separated path relative to the source dir
	Docname      string // relative path without extension; empty for assets
	IsAsset      bool
}

// Discover walks sourceDir and returns all documents and assets, sorted by
// relative path. Hidden files and directories are skipped.
func Discover(sourceDir string) ([]DocFile, error) {
	var files []DocFile
	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != sourceDir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		doc := DocFile{Path: path, RelativePath: rel}
		if strings.EqualFold(filepath.Ext(path), SourceExt) {
			doc.Docname = strings.TrimSuffix(rel, filepath.Ext(rel))
		} else {
			doc.IsAsset = true
		}
		files = append(files, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover sources in %s: %w", sourceDir, err)
	}
	return files, nil
}

// Docname maps a source file path under sourceDir to its docname. ok is
// false when the path is outside sourceDir or not a markdown source.
func Docname(sourceDir, path string) (docname string, ok bool) {
	rel, err := filepath.Rel(sourceDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if !strings.EqualFold(filepath.Ext(rel), SourceExt) {
		return "", false
	}
	return strings.TrimSuffix(rel, filepath.Ext(rel)), true
}

// OutputPath maps a docname to its built file under outputDir.
func OutputPath(outputDir, docname string) string {
	return filepath.Join(outputDir, filepath.FromSlash(docname)+OutputExt)
}

// ReadSource reads a document's raw source text.
func ReadSource(doc DocFile) ([]byte, error) {
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", doc.Path, err)
	}
	return data, nil
}
