// Package publish uploads a generated site tree to the hosting branch of
// the notes repository. The branch carries only compiled output; history on
// it is append-only snapshots, one commit per changed run.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	cfg "github.com/confpress/confpress/internal/config"
	"github.com/confpress/confpress/internal/logfields"
)

// Result summarizes one publish attempt.
type Result struct {
	Commit    string
	Pushed    bool
	Unchanged bool
}

// Publisher maintains a local checkout of the hosting branch inside the
// workspace and pushes snapshots of the output tree to it.
type Publisher struct {
	cfg    cfg.PublishConfig
	logger *slog.Logger
}

func NewPublisher(c cfg.PublishConfig, logger *slog.Logger) *Publisher {
	return &Publisher{cfg: c, logger: logger}
}

// Publish snapshots outputDir onto the hosting branch. checkoutDir is a
// workspace directory reused across runs for the branch clone. When the
// tree is identical to the branch tip no commit is created and no push
// happens.
func (p *Publisher) Publish(ctx context.Context, outputDir, checkoutDir string) (Result, error) {
	var res Result

	auth, err := buildAuthMethod(p.cfg.Auth)
	if err != nil {
		return res, err
	}

	remoteURL, err := p.resolveRemoteURL()
	if err != nil {
		return res, err
	}

	repo, err := p.openOrClone(ctx, checkoutDir, remoteURL, auth)
	if err != nil {
		return res, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return res, fmt.Errorf("worktree: %w", err)
	}

	if err := replaceWorktree(wt.Filesystem.Root(), outputDir); err != nil {
		return res, fmt.Errorf("stage output tree: %w", err)
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return res, fmt.Errorf("stage changes: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return res, fmt.Errorf("worktree status: %w", err)
	}
	if status.IsClean() {
		p.logger.Info("output tree unchanged, skipping publish",
			logfields.Branch(p.cfg.Branch))
		res.Unchanged = true
		return res, nil
	}

	commit, err := wt.Commit(
		fmt.Sprintf("Publish site %s", time.Now().UTC().Format("2006-01-02 15:04:05")),
		&git.CommitOptions{
			Author: &object.Signature{
				Name:  p.cfg.Author,
				Email: p.cfg.Email,
				When:  time.Now(),
			},
		})
	if err != nil {
		return res, fmt.Errorf("commit snapshot: %w", err)
	}
	res.Commit = commit.String()

	refSpec := config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", p.cfg.Branch, p.cfg.Branch))
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []config.RefSpec{refSpec},
		Auth:       auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return res, classifyRemoteError(p.cfg.Remote, p.cfg.Branch, err)
	}
	res.Pushed = true

	p.logger.Info("published site snapshot",
		logfields.Branch(p.cfg.Branch),
		slog.String("commit", shortHash(res.Commit)))
	return res, nil
}

// resolveRemoteURL maps the configured remote to a URL. A remote given as a
// URL or filesystem path is used directly; a bare name is looked up in the
// notes repository.
func (p *Publisher) resolveRemoteURL() (string, error) {
	remote := p.cfg.Remote
	if strings.Contains(remote, "://") || strings.Contains(remote, "@") ||
		strings.ContainsAny(remote, `/\`) {
		return remote, nil
	}
	repo, err := git.PlainOpenWithOptions(p.cfg.RepoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open notes repository %s: %w", p.cfg.RepoPath, err)
	}
	r, err := repo.Remote(remote)
	if err != nil {
		return "", fmt.Errorf("remote %q not found in %s: %w", remote, p.cfg.RepoPath, err)
	}
	urls := r.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %q has no URL", remote)
	}
	return urls[0], nil
}

// openOrClone reuses an existing checkout or clones the hosting branch. A
// missing remote branch yields a fresh orphan branch in a new local repo.
func (p *Publisher) openOrClone(ctx context.Context, checkoutDir, remoteURL string, auth transport.AuthMethod) (*git.Repository, error) {
	if repo, err := git.PlainOpen(checkoutDir); err == nil {
		wt, err := repo.Worktree()
		if err != nil {
			return nil, fmt.Errorf("worktree: %w", err)
		}
		err = wt.PullContext(ctx, &git.PullOptions{
			RemoteName:    "origin",
			ReferenceName: plumbing.NewBranchReferenceName(p.cfg.Branch),
			Auth:          auth,
			Force:         true,
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil, classifyRemoteError(remoteURL, p.cfg.Branch, err)
		}
		return repo, nil
	}

	repo, err := git.PlainCloneContext(ctx, checkoutDir, false, &git.CloneOptions{
		URL:           remoteURL,
		ReferenceName: plumbing.NewBranchReferenceName(p.cfg.Branch),
		SingleBranch:  true,
		Depth:         1,
		Auth:          auth,
	})
	if err == nil {
		return repo, nil
	}
	if !isMissingBranch(err) {
		return nil, classifyRemoteError(remoteURL, p.cfg.Branch, err)
	}

	// First ever publish: the hosting branch does not exist yet.
	repo, err = git.PlainInit(checkoutDir, false)
	if err != nil {
		return nil, fmt.Errorf("init hosting checkout: %w", err)
	}
	if _, err := repo.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{remoteURL},
	}); err != nil {
		return nil, fmt.Errorf("configure remote: %w", err)
	}
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(p.cfg.Branch))
	if err := repo.Storer.SetReference(head); err != nil {
		return nil, fmt.Errorf("set hosting branch head: %w", err)
	}
	p.logger.Info("hosting branch does not exist yet, will create it",
		logfields.Branch(p.cfg.Branch))
	return repo, nil
}

// isMissingBranch matches go-git's errors for cloning a branch the remote
// does not have yet. The transport error is unexported, hence the message
// check.
func isMissingBranch(err error) bool {
	if errors.Is(err, plumbing.ErrReferenceNotFound) || errors.Is(err, git.ErrBranchNotFound) ||
		errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return true
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "couldn't find remote ref")
}

// replaceWorktree mirrors outputDir into the checkout, removing everything
// except the .git directory first.
func replaceWorktree(checkoutRoot, outputDir string) error {
	entries, err := os.ReadDir(checkoutRoot)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Name() == ".git" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(checkoutRoot, e.Name())); err != nil {
			return err
		}
	}
	return copyTree(outputDir, checkoutRoot)
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if entry.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(p, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
