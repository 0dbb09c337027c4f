package transplant

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// externalURI identifies links that are not relative: anything with a URI
// scheme, plus mailto.
var externalURI = regexp.MustCompile(`^([a-z][a-z0-9+.-]*://)|(^mailto:)`)

// siteRootMarker prefixes links that some rich-content renderers emit
// relative to the build root rather than the page.
const siteRootMarker = ".//"

// adaptRelativeURLs rewrites the relative links and image sources in a
// fragment extracted from the page at originPath so they stay valid when the
// fragment moves to the page at destPath. rootDir is the build output root.
func adaptRelativeURLs(fragment *html.Node, rootDir, originPath, destPath string) {
	originDir := filepath.Dir(originPath)
	destDir := filepath.Dir(destPath)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				if href := getAttr(n, "href"); href != "" {
					setAttr(n, "href", adaptHref(fragment, href, rootDir, originDir, destDir, originPath))
				}
			case "img":
				if src := getAttr(n, "src"); src != "" && !externalURI.MatchString(src) {
					setAttr(n, "src", rebase(src, originDir, destDir))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(fragment)
}

func adaptHref(fragment *html.Node, href, rootDir, originDir, destDir, originPath string) string {
	switch {
	case externalURI.MatchString(href):
		return href

	case strings.HasPrefix(href, "#"):
		// If the anchor target traveled along inside the fragment the link
		// still works; otherwise it points at something that stayed on the
		// origin page, so send the reader back there.
		if hasID(fragment, strings.TrimPrefix(href, "#")) {
			return href
		}
		rel, err := filepath.Rel(destDir, originPath)
		if err != nil {
			return href
		}
		return filepath.ToSlash(rel) + href

	case strings.HasPrefix(href, siteRootMarker):
		return rebase(strings.TrimPrefix(href, siteRootMarker), rootDir, destDir)

	default:
		return rebase(href, originDir, destDir)
	}
}

// rebase resolves ref against fromDir and recomputes it relative to toDir.
// Query strings and fragments survive because they are carried along as part
// of the final path element.
func rebase(ref, fromDir, toDir string) string {
	abs := filepath.Join(fromDir, filepath.FromSlash(ref))
	rel, err := filepath.Rel(toDir, abs)
	if err != nil {
		return ref
	}
	return filepath.ToSlash(rel)
}
