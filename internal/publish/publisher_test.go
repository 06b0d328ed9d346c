package publish

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"github.com/confpress/confpress/internal/config"
)

func setupRemote(t *testing.T) string {
	t.Helper()
	remoteDir := t.TempDir()
	_, err := git.PlainInit(remoteDir, true)
	require.NoError(t, err)
	return remoteDir
}

func writeOutputTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func newTestPublisher(t *testing.T, remote string) *Publisher {
	t.Helper()
	return NewPublisher(config.PublishConfig{
		Remote: remote,
		Branch: "gh-pages",
		Author: "confpress",
		Email:  "confpress@localhost",
	}, slog.Default())
}

func TestPublish_FirstSnapshotCreatesBranch(t *testing.T) {
	remote := setupRemote(t)
	output := writeOutputTree(t, map[string]string{
		"index.html":  "<html>v1</html>",
		"favicon.ico": "icon",
	})
	checkout := filepath.Join(t.TempDir(), "hosting")

	pub := newTestPublisher(t, remote)
	res, err := pub.Publish(context.Background(), output, checkout)
	require.NoError(t, err)
	require.True(t, res.Pushed)
	require.NotEmpty(t, res.Commit)

	repo, err := git.PlainOpen(remote)
	require.NoError(t, err)
	ref, err := repo.Reference(plumbing.NewBranchReferenceName("gh-pages"), true)
	require.NoError(t, err)
	require.Equal(t, res.Commit, ref.Hash().String())
}

func TestPublish_UnchangedTreeSkipsCommit(t *testing.T) {
	remote := setupRemote(t)
	output := writeOutputTree(t, map[string]string{"index.html": "<html>v1</html>"})
	checkout := filepath.Join(t.TempDir(), "hosting")

	pub := newTestPublisher(t, remote)
	first, err := pub.Publish(context.Background(), output, checkout)
	require.NoError(t, err)
	require.True(t, first.Pushed)

	second, err := pub.Publish(context.Background(), output, checkout)
	require.NoError(t, err)
	require.True(t, second.Unchanged)
	require.False(t, second.Pushed)
	require.Empty(t, second.Commit)
}

func TestPublish_ChangedTreePushesNewSnapshot(t *testing.T) {
	remote := setupRemote(t)
	checkout := filepath.Join(t.TempDir(), "hosting")
	pub := newTestPublisher(t, remote)

	v1 := writeOutputTree(t, map[string]string{"index.html": "<html>v1</html>", "old.html": "stale"})
	first, err := pub.Publish(context.Background(), v1, checkout)
	require.NoError(t, err)

	v2 := writeOutputTree(t, map[string]string{"index.html": "<html>v2</html>"})
	second, err := pub.Publish(context.Background(), v2, checkout)
	require.NoError(t, err)
	require.True(t, second.Pushed)
	require.NotEqual(t, first.Commit, second.Commit)

	// The removed file is gone from the checkout (snapshot, not overlay).
	_, statErr := os.Stat(filepath.Join(checkout, "old.html"))
	require.True(t, os.IsNotExist(statErr))
	data, err := os.ReadFile(filepath.Join(checkout, "index.html"))
	require.NoError(t, err)
	require.Equal(t, "<html>v2</html>", string(data))
}

func TestBuildAuthMethod(t *testing.T) {
	m, err := buildAuthMethod(nil)
	require.NoError(t, err)
	require.Nil(t, m)

	m, err = buildAuthMethod(&config.AuthConfig{Type: config.AuthTypeToken, Token: "tok"})
	require.NoError(t, err)
	require.NotNil(t, m)

	m, err = buildAuthMethod(&config.AuthConfig{Type: config.AuthTypeBasic, Username: "u", Password: "p"})
	require.NoError(t, err)
	require.NotNil(t, m)

	_, err = buildAuthMethod(&config.AuthConfig{Type: config.AuthTypeBasic})
	require.Error(t, err)

	_, err = buildAuthMethod(&config.AuthConfig{Type: config.AuthTypeSSH})
	require.Error(t, err)
}
