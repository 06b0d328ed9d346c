// Package sitecheck verifies a generated site tree after compilation and
// asset override: internal links and asset references must resolve inside
// the tree, and icon references are cross-checked against the overridden
// icon files.
package sitecheck

import (
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Severity of a reported issue.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue codes.
const (
	// IssueBrokenInternalLink reports an internal href/src with no target
	// file in the output tree.
	IssueBrokenInternalLink = "broken_internal_link"
	// IssueIconOverrideIneffective reports a page whose icon reference
	// bypasses the overridden icon files. This is the tracked, undiagnosed
	// defect of the override step: the files on disk are replaced but the
	// rendered HTML can still point at a compiler-hashed asset.
	IssueIconOverrideIneffective = "icon_override_ineffective"
)

// Issue is one finding from a site check.
type Issue struct {
	Code     string
	Severity Severity
	Page     string // html file, relative to the output root
	Ref      string // offending reference
	Detail   string
}

// Checker verifies a generated site tree.
type Checker struct {
	basePath  string   // hosting base path prefix, e.g. /notes/
	iconNames []string // overridden icon file names at the output root
}

// NewChecker creates a checker. basePath is the hosting prefix internal
// absolute links are rooted under; iconNames are the overridden icon files.
func NewChecker(basePath string, iconNames []string) *Checker {
	return &Checker{basePath: basePath, iconNames: iconNames}
}

// Check walks the output tree and returns all findings. A non-nil error
// means the check itself could not run, not that issues were found.
func (c *Checker) Check(outputDir string) ([]Issue, error) {
	root, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}

	var issues []Issue
	walkErr := filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		pageIssues, err := c.checkPage(root, filepath.ToSlash(rel), p)
		if err != nil {
			return err
		}
		issues = append(issues, pageIssues...)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk output tree: %w", walkErr)
	}
	return issues, nil
}

func (c *Checker) checkPage(root, rel, fullPath string) ([]Issue, error) {
	f, err := os.Open(filepath.Clean(fullPath))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	doc, err := html.Parse(f)
	if err != nil {
		// Malformed HTML from the compiler is a finding, not a crash.
		return []Issue{{
			Code:     IssueBrokenInternalLink,
			Severity: SeverityWarning,
			Page:     rel,
			Detail:   fmt.Sprintf("unparseable HTML: %v", err),
		}}, nil
	}

	var issues []Issue
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a", "link":
				if ref := attr(n, "href"); ref != "" {
					issues = append(issues, c.checkRef(root, rel, n, ref)...)
				}
			case "img", "script":
				if ref := attr(n, "src"); ref != "" {
					issues = append(issues, c.checkRef(root, rel, n, ref)...)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(doc)
	return issues, nil
}

func (c *Checker) checkRef(root, page string, n *html.Node, ref string) []Issue {
	target, internal := c.resolveInternal(page, ref)
	if !internal {
		return nil
	}

	var issues []Issue
	if !targetExists(root, target) {
		issues = append(issues, Issue{
			Code:     IssueBrokenInternalLink,
			Severity: SeverityWarning,
			Page:     page,
			Ref:      ref,
			Detail:   fmt.Sprintf("target %s not found in output tree", target),
		})
	}

	if n.Data == "link" && isIconRel(attr(n, "rel")) {
		if !c.refersToOverriddenIcon(target) {
			issues = append(issues, Issue{
				Code:     IssueIconOverrideIneffective,
				Severity: SeverityWarning,
				Page:     page,
				Ref:      ref,
				Detail:   "icon reference bypasses the overridden icon files",
			})
		}
	}

	return issues
}

// resolveInternal maps a reference to an output-tree path. External schemes,
// anchors and mailto are not internal.
func (c *Checker) resolveInternal(page, ref string) (string, bool) {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return "", false
	}

	p := u.Path
	if strings.HasPrefix(p, "/") {
		// Absolute references are rooted under the hosting base path.
		p = strings.TrimPrefix(p, strings.TrimSuffix(c.basePath, "/"))
		return strings.TrimPrefix(p, "/"), true
	}
	return path.Join(path.Dir(page), p), true
}

func targetExists(root, target string) bool {
	if target == "" || target == "." {
		return true
	}
	full := filepath.Join(root, filepath.FromSlash(target))
	fi, err := os.Stat(full)
	if err == nil {
		if fi.IsDir() {
			// Directory links resolve through their index page.
			_, err = os.Stat(filepath.Join(full, "index.html"))
			return err == nil
		}
		return true
	}
	// Pretty URLs: /page/ may be emitted as page.html.
	_, err = os.Stat(full + ".html")
	return err == nil
}

func (c *Checker) refersToOverriddenIcon(target string) bool {
	base := path.Base(target)
	for _, name := range c.iconNames {
		if base == name && path.Dir(target) == "." {
			return true
		}
	}
	return false
}

func isIconRel(rel string) bool {
	for _, part := range strings.Fields(strings.ToLower(rel)) {
		switch part {
		case "icon", "shortcut", "apple-touch-icon":
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
