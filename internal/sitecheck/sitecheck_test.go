package sitecheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func issuesByCode(issues []Issue) map[string][]Issue {
	out := map[string][]Issue{}
	for _, i := range issues {
		out[i.Code] = append(out[i.Code], i)
	}
	return out
}

func TestCheck_CleanTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "favicon.ico", "icon")
	writeFile(t, root, "index.html", `<html><head>
<link rel="icon" href="/notes/favicon.ico">
</head><body>
<a href="/notes/talks/keynote.html">Keynote</a>
</body></html>`)
	writeFile(t, root, "talks/keynote.html", `<html><body><a href="../index.html">Home</a></body></html>`)

	checker := NewChecker("/notes/", []string{"favicon.ico", "apple-touch-icon.png"})
	issues, err := checker.Check(root)
	require.NoError(t, err)
	require.Empty(t, issues)
}

func TestCheck_BrokenInternalLink(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", `<html><body><a href="missing.html">Gone</a></body></html>`)

	checker := NewChecker("/", nil)
	issues, err := checker.Check(root)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	require.Equal(t, IssueBrokenInternalLink, issues[0].Code)
	require.Equal(t, "missing.html", issues[0].Ref)
}

func TestCheck_ExternalLinksIgnored(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", `<html><body>
<a href="https://example.com/talk">External</a>
<a href="mailto:someone@example.com">Mail</a>
<a href="#section">Anchor</a>
</body></html>`)

	checker := NewChecker("/", nil)
	issues, err := checker.Check(root)
	require.NoError(t, err)
	require.Empty(t, issues)
}

func TestCheck_IconOverrideIneffective(t *testing.T) {
	root := t.TempDir()
	// The override step replaced the root icons, but the rendered HTML still
	// points at a compiler-hashed asset.
	writeFile(t, root, "favicon.ico", "repo-icon")
	writeFile(t, root, "apple-touch-icon.png", "repo-icon")
	writeFile(t, root, "assets/favicon.8d1a2f.ico", "compiler-icon")
	writeFile(t, root, "index.html", `<html><head>
<link rel="icon" href="/assets/favicon.8d1a2f.ico">
<link rel="apple-touch-icon" href="/apple-touch-icon.png">
</head><body></body></html>`)

	checker := NewChecker("/", []string{"favicon.ico", "apple-touch-icon.png"})
	issues, err := checker.Check(root)
	require.NoError(t, err)

	byCode := issuesByCode(issues)
	require.Len(t, byCode[IssueIconOverrideIneffective], 1)
	require.Equal(t, SeverityWarning, byCode[IssueIconOverrideIneffective][0].Severity)
	require.Equal(t, "/assets/favicon.8d1a2f.ico", byCode[IssueIconOverrideIneffective][0].Ref)
	// The hashed asset exists on disk, so no broken-link issue accompanies it.
	require.Empty(t, byCode[IssueBrokenInternalLink])
}

func TestCheck_DirectoryLinkResolvesThroughIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "talks/index.html", "<html></html>")
	writeFile(t, root, "index.html", `<html><body><a href="/talks/">Talks</a></body></html>`)

	checker := NewChecker("/", nil)
	issues, err := checker.Check(root)
	require.NoError(t, err)
	require.Empty(t, issues)
}

func TestCheck_BasePathStripped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "page.html", "<html></html>")
	writeFile(t, root, "index.html", `<html><body><a href="/notes/page.html">Page</a></body></html>`)

	checker := NewChecker("/notes/", nil)
	issues, err := checker.Check(root)
	require.NoError(t, err)
	require.Empty(t, issues)
}
