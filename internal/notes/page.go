package notes

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/confpress/confpress/internal/frontmatter"
)

// Page represents one authored note about a conference session.
type Page struct {
	Path         string   // absolute path to the source file
	RelativePath string   // path relative to the content directory
	Name         string   // file name without extension
	Slug         string   // normalized URL path segment
	Section      string   // top directory under the content root ("" at root)
	Title        string   // frontmatter title, or first markdown heading
	Kind         string   // page kind from frontmatter (session, workshop, ...)
	CTAURL       string   // call-to-action link from frontmatter
	Contributors []string // contributor identifiers from frontmatter
	Content      []byte   // raw file content
	IsAsset      bool     // true for images and other non-markdown files
}

// extractTitle returns the first markdown heading's text, or "".
func extractTitle(body []byte) string {
	md := goldmark.New()
	root := md.Parser().Parse(gmtext.NewReader(body))

	var title string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if h, ok := n.(*gmast.Heading); ok {
			var sb strings.Builder
			for c := h.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*gmast.Text); ok {
					sb.Write(t.Segment.Value(body))
				}
			}
			title = strings.TrimSpace(sb.String())
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return title
}

// BodyLinks extracts link destinations from a markdown body. Used by the
// site check to cross-reference embedded images against discovered assets.
func BodyLinks(body []byte) []string {
	md := goldmark.New()
	root := md.Parser().Parse(gmtext.NewReader(body))

	var links []string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, string(node.URL(body)))
		case *gmast.Image:
			links = append(links, string(node.Destination))
		case *gmast.Link:
			links = append(links, string(node.Destination))
		}
		return gmast.WalkContinue, nil
	})
	return links
}

// fieldsString reads a string value out of parsed frontmatter fields.
func fieldsString(doc *frontmatter.Doc, key string) string {
	if doc == nil || doc.Fields == nil {
		return ""
	}
	if v, ok := doc.Fields[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
