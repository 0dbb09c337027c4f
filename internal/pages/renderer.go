package pages

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"unicode/utf8"
)

//go:embed templates/*.md.tmpl
var builtinTemplates embed.FS

// TagLink is a rendered link to a tag page.
type TagLink struct {
	Name string
	Href string
}

// ExampleLink is a rendered link to a standalone example page.
type ExampleLink struct {
	Title string
	Href  string
}

// ExamplePageContext enumerates the fields the examplepage template may
// reference. Contexts are deliberately closed structs; templates render with
// missingkey=error so a typo fails instead of emitting "<no value>".
type ExamplePageContext struct {
	Title         string
	ExampleID     string
	OriginDocname string
	OriginHref    string
	Tags          []TagLink
}

// TagPageContext enumerates the fields the tagpage template may reference.
type TagPageContext struct {
	Title    string
	TagName  string
	Examples []ExampleLink
}

// IndexPageContext enumerates the fields the indexpage template may reference.
type IndexPageContext struct {
	Title    string
	Examples []ExampleLink
}

// Renderer renders generated pages from templates. Built-in templates are
// embedded; a project may override any of them by placing files with the
// same name in its template directory.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer builds a Renderer. h1Char is the character used by the
// underline template function; overrideDir (optional) is searched for
// project-level template overrides.
func NewRenderer(h1Char rune, overrideDir string) (*Renderer, error) {
	funcs := template.FuncMap{
		"underline": func(text string) (string, error) {
			if strings.ContainsRune(text, '\n') {
				return "", errors.New("can only underline single lines")
			}
			return text + "\n" + strings.Repeat(string(h1Char), utf8.RuneCountInString(text)), nil
		},
	}

	tmpl, err := template.New("pages").Option("missingkey=error").Funcs(funcs).
		ParseFS(builtinTemplates, "templates/*.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse built-in templates: %w", err)
	}

	if overrideDir != "" {
		pattern := filepath.Join(overrideDir, "*.md.tmpl")
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("scan template overrides: %w", err)
		}
		if len(matches) > 0 {
			// Later definitions with the same name take precedence.
			if tmpl, err = tmpl.ParseGlob(pattern); err != nil {
				return nil, fmt.Errorf("parse template overrides: %w", err)
			}
		}
	}

	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the named template ("examplepage", "tagpage" or
// "indexpage") with the given context.
func (r *Renderer) Render(name string, ctx any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name+".md.tmpl", ctx); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
