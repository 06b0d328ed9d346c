package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/confpress/confpress/internal/compile"
	"github.com/confpress/confpress/internal/config"
	"github.com/confpress/confpress/internal/frontmatter"
)

// fakeCompiler writes a minimal site tree the way the real compiler would:
// one page plus default icon files at the output root.
type fakeCompiler struct {
	calls int
}

func (f *fakeCompiler) Compile(_ context.Context, inv compile.Invocation) error {
	f.calls++
	html := `<html><head>
<link rel="icon" href="/favicon.ico">
<link rel="apple-touch-icon" href="/apple-touch-icon.png">
</head><body><h1>Notes</h1></body></html>`
	if err := os.WriteFile(filepath.Join(inv.OutputDir, "index.html"), []byte(html), 0o644); err != nil {
		return err
	}
	for _, name := range []string{"favicon.ico", "apple-touch-icon.png"} {
		if err := os.WriteFile(filepath.Join(inv.OutputDir, name), []byte("compiler-default"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func setupNotesRepo(t *testing.T) (repoDir string) {
	t.Helper()
	repoDir = t.TempDir()

	notesDir := filepath.Join(repoDir, "notes")
	require.NoError(t, os.MkdirAll(notesDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(notesDir, "keynote.md"),
		[]byte("---\ntitle: Keynote\n---\nOpening session notes.\n"), 0o644))

	assetsDir := filepath.Join(repoDir, "assets")
	require.NoError(t, os.MkdirAll(assetsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(assetsDir, "favicon.ico"), []byte("repo-icon"), 0o644))

	repo, err := git.PlainInit(repoDir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(".")
	require.NoError(t, err)
	_, err = wt.Commit("initial notes", &git.CommitOptions{
		Author: &object.Signature{Name: "Alice Author", Email: "alice@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return repoDir
}

func testConfig(t *testing.T, repoDir string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Site.ContentDir = filepath.Join(repoDir, "notes")
	cfg.Site.AssetsDir = filepath.Join(repoDir, "assets")
	cfg.Site.BasePath = "/"
	cfg.Output.Directory = filepath.Join(t.TempDir(), "public")
	cfg.Output.Clean = true
	cfg.Metadata.RepoPath = repoDir
	cfg.Assets.IconSource = "favicon.ico"
	cfg.Assets.Icons = []string{"favicon.ico", "apple-touch-icon.png"}
	cfg.Build.SkipPublish = true
	cfg.Build.WorkspaceDir = t.TempDir()
	return cfg
}

func TestBuilderRun_EndToEnd(t *testing.T) {
	repoDir := setupNotesRepo(t)
	cfg := testConfig(t, repoDir)

	fc := &fakeCompiler{}
	b := NewBuilder(cfg, slog.Default()).WithCompiler(fc)

	report, err := b.Run(context.Background(), "manual")
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, report.OutcomeValue)
	require.Equal(t, 1, fc.calls)
	require.Equal(t, 1, report.PagesSeen)
	require.Equal(t, 1, report.PagesUpdated)

	// Metadata was written into the page frontmatter.
	raw, err := os.ReadFile(filepath.Join(repoDir, "notes", "keynote.md"))
	require.NoError(t, err)
	doc, err := frontmatter.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, []string{"Alice Author"}, doc.Contributors())
	require.NotEmpty(t, doc.Fields["uid"])
	require.NotEmpty(t, doc.Fields["lastmod"])

	// Icons at the output root carry the repository bytes.
	for _, name := range cfg.Assets.Icons {
		data, err := os.ReadFile(filepath.Join(cfg.Output.Directory, name))
		require.NoError(t, err)
		require.Equal(t, "repo-icon", string(data))
	}
}

func TestBuilderRun_SecondRunIsNoOpForMetadata(t *testing.T) {
	repoDir := setupNotesRepo(t)
	cfg := testConfig(t, repoDir)

	b := NewBuilder(cfg, slog.Default()).WithCompiler(&fakeCompiler{})

	first, err := b.Run(context.Background(), "manual")
	require.NoError(t, err)
	require.Equal(t, 1, first.PagesUpdated)

	second, err := b.Run(context.Background(), "manual")
	require.NoError(t, err)
	require.Equal(t, 0, second.PagesUpdated, "unchanged content must not be rewritten")
	require.Equal(t, OutcomeSuccess, second.OutcomeValue)
}

func TestBuilderRun_EmptyContentDirFails(t *testing.T) {
	repoDir := setupNotesRepo(t)
	cfg := testConfig(t, repoDir)
	cfg.Site.ContentDir = t.TempDir() // exists but holds no pages

	b := NewBuilder(cfg, slog.Default()).WithCompiler(&fakeCompiler{})
	report, err := b.Run(context.Background(), "manual")
	require.Error(t, err)
	require.Equal(t, OutcomeFailed, report.OutcomeValue)
	require.Equal(t, StageResultFatal, report.StageResults[StageDiscoverNotes])
}
