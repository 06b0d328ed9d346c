// Package notes discovers and models the authored note collection.
package notes

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/confpress/confpress/internal/frontmatter"
	"github.com/confpress/confpress/internal/logfields"
	"github.com/confpress/confpress/internal/slug"
)

// Asset extensions recognized alongside markdown pages.
var assetExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".ico": true, ".pdf": true,
}

// Discovery walks a content directory and produces the page collection.
type Discovery struct {
	contentDir string
}

// NewDiscovery creates a discovery instance rooted at the content directory.
func NewDiscovery(contentDir string) *Discovery {
	return &Discovery{contentDir: contentDir}
}

// DiscoverPages finds all note pages and assets under the content directory.
//
// Results are sorted by relative path so downstream processing (and
// generated output) is deterministic.
func (d *Discovery) DiscoverPages() ([]Page, error) {
	root, err := filepath.Abs(d.contentDir)
	if err != nil {
		return nil, fmt.Errorf("resolve content dir: %w", err)
	}
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("content directory not found: %s", d.contentDir)
	}

	var pages []Page
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			// Hidden directories (e.g. .git, .obsidian) are never content.
			if name := entry.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		isMarkdown := ext == ".md" || ext == ".markdown"
		if !isMarkdown && !assetExtensions[ext] {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		page, err := d.loadPage(path, rel, !isMarkdown)
		if err != nil {
			slog.Warn("Skipping unreadable page", logfields.Path(rel), logfields.Error(err))
			return nil
		}
		pages = append(pages, page)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk content directory: %w", walkErr)
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].RelativePath < pages[j].RelativePath })

	slog.Info("Note discovery completed", "pages", countMarkdown(pages), "assets", len(pages)-countMarkdown(pages))
	return pages, nil
}

func (d *Discovery) loadPage(path, rel string, isAsset bool) (Page, error) {
	name := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	section := ""
	if dir := filepath.Dir(rel); dir != "." {
		section = strings.Split(filepath.ToSlash(dir), "/")[0]
	}

	page := Page{
		Path:         path,
		RelativePath: filepath.ToSlash(rel),
		Name:         name,
		Slug:         slug.Make(name),
		Section:      section,
		IsAsset:      isAsset,
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Page{}, err
	}
	page.Content = content

	if isAsset {
		return page, nil
	}

	doc, err := frontmatter.Parse(content)
	if err != nil {
		return Page{}, fmt.Errorf("parse frontmatter: %w", err)
	}

	page.Title = fieldsString(doc, "title")
	page.Kind = fieldsString(doc, "type")
	page.CTAURL = fieldsString(doc, "cta")
	page.Contributors = doc.Contributors()

	if page.Title == "" {
		page.Title = extractTitle(doc.Body)
	}
	if page.Title == "" {
		page.Title = name
	}

	return page, nil
}

func countMarkdown(pages []Page) int {
	n := 0
	for _, p := range pages {
		if !p.IsAsset {
			n++
		}
	}
	return n
}

// PagesBySection groups markdown pages by their section directory.
func PagesBySection(pages []Page) map[string][]Page {
	out := make(map[string][]Page)
	for _, p := range pages {
		if p.IsAsset {
			continue
		}
		out[p.Section] = append(out[p.Section], p)
	}
	return out
}
