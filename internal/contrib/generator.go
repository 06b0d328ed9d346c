// Package contrib implements the metadata generation step: per-page
// contributor lists derived from the notes repository history, resolved to
// display names through the forge API, and written into page frontmatter
// together with stable UIDs and content fingerprints.
package contrib

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/confpress/confpress/internal/config"
	"github.com/confpress/confpress/internal/frontmatter"
	"github.com/confpress/confpress/internal/logfields"
	"github.com/confpress/confpress/internal/notes"
)

// ErrNotARepository is returned when the configured repo path does not
// contain a git repository.
var ErrNotARepository = errors.New("notes path is not a git repository")

// Generator writes contributor, uid and fingerprint metadata into page
// frontmatter.
type Generator struct {
	cfg    config.MetadataConfig
	forge  *ForgeClient
	logger *slog.Logger
}

// Result summarizes one generation pass.
type Result struct {
	PagesSeen    int
	PagesUpdated int
	LookupErrors int
}

// NewGenerator creates a generator. token is the resolved forge token; an
// empty token disables display-name resolution and commit author names are
// used directly.
func NewGenerator(cfg config.MetadataConfig, token string, logger *slog.Logger) *Generator {
	g := &Generator{cfg: cfg, logger: logger}
	if cfg.ForgeAPIURL != "" && cfg.ForgeRepo != "" {
		g.forge = NewForgeClient(cfg.ForgeAPIURL, cfg.ForgeRepo, token)
	}
	return g
}

// Generate updates metadata for every page. Pages whose serialized form is
// unchanged are not rewritten, so repeated runs over unchanged content are
// no-ops.
func (g *Generator) Generate(ctx context.Context, pages []notes.Page) (Result, error) {
	var res Result

	repo, err := git.PlainOpenWithOptions(g.cfg.RepoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return res, fmt.Errorf("%w: %s", ErrNotARepository, g.cfg.RepoPath)
		}
		return res, fmt.Errorf("open notes repository: %w", err)
	}

	repoRoot, err := repoWorktreeRoot(repo)
	if err != nil {
		return res, err
	}

	for i := range pages {
		page := &pages[i]
		if page.IsAsset {
			continue
		}
		res.PagesSeen++

		updated, lookupErrs, err := g.generatePage(ctx, repo, repoRoot, page)
		if err != nil {
			return res, fmt.Errorf("generate metadata for %s: %w", page.RelativePath, err)
		}
		res.LookupErrors += lookupErrs
		if updated {
			res.PagesUpdated++
		}
	}
	return res, nil
}

func (g *Generator) generatePage(ctx context.Context, repo *git.Repository, repoRoot string, page *notes.Page) (bool, int, error) {
	emails, authors, err := pageCommitters(repo, repoRoot, page.Path)
	if err != nil {
		return false, 0, err
	}

	contributors := make([]string, 0, len(emails))
	lookupErrs := 0
	for i, email := range emails {
		name := authors[i]
		if g.forge != nil {
			resolved, err := g.forge.DisplayName(ctx, email)
			if err != nil {
				lookupErrs++
				g.logger.Warn("forge lookup failed, using commit author name",
					logfields.Page(page.RelativePath), logfields.Error(err))
			} else if resolved != "" {
				name = resolved
			}
		}
		if name != "" {
			contributors = append(contributors, name)
		}
	}
	contributors = dedupe(contributors)
	if g.cfg.MaxContributors > 0 && len(contributors) > g.cfg.MaxContributors {
		contributors = contributors[:g.cfg.MaxContributors]
	}

	raw, err := os.ReadFile(page.Path)
	if err != nil {
		return false, lookupErrs, err
	}
	doc, err := frontmatter.Parse(raw)
	if err != nil {
		return false, lookupErrs, fmt.Errorf("parse frontmatter: %w", err)
	}

	_, uidChanged, err := doc.EnsureUID()
	if err != nil {
		return false, lookupErrs, err
	}
	contribChanged, err := doc.SetContributors(contributors)
	if err != nil {
		return false, lookupErrs, err
	}
	_, fpChanged, err := doc.UpsertFingerprint(time.Now())
	if err != nil {
		return false, lookupErrs, err
	}
	changed := uidChanged || contribChanged || fpChanged

	if !changed {
		return false, lookupErrs, nil
	}

	out, err := doc.Render()
	if err != nil {
		return false, lookupErrs, err
	}
	if err := os.WriteFile(page.Path, out, 0o644); err != nil {
		return false, lookupErrs, err
	}
	return true, lookupErrs, nil
}

// pageCommitters returns committer emails and author names for a file,
// ordered by first contribution (oldest first) for deterministic output.
func pageCommitters(repo *git.Repository, repoRoot, pagePath string) ([]string, []string, error) {
	rel, err := filepath.Rel(repoRoot, pagePath)
	if err != nil {
		return nil, nil, err
	}
	rel = filepath.ToSlash(rel)

	iter, err := repo.Log(&git.LogOptions{FileName: &rel, All: false})
	if err != nil {
		return nil, nil, fmt.Errorf("read history for %s: %w", rel, err)
	}
	defer iter.Close()

	type entry struct {
		email, name string
		when        int64
	}
	seen := make(map[string]*entry)
	err = iter.ForEach(func(c *object.Commit) error {
		email := c.Author.Email
		when := c.Author.When.Unix()
		if e, ok := seen[email]; ok {
			if when < e.when {
				e.when = when
			}
			return nil
		}
		seen[email] = &entry{email: email, name: c.Author.Name, when: when}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk history for %s: %w", rel, err)
	}

	entries := make([]*entry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].when != entries[j].when {
			return entries[i].when < entries[j].when
		}
		return entries[i].email < entries[j].email
	})

	emails := make([]string, len(entries))
	names := make([]string, len(entries))
	for i, e := range entries {
		emails[i] = e.email
		names[i] = e.name
	}
	return emails, names, nil
}

func repoWorktreeRoot(repo *git.Repository) (string, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("notes repository has no worktree: %w", err)
	}
	return wt.Filesystem.Root(), nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
