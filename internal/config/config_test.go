package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "confpress.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
site:
  title: Test Notes
  content_dir: ./notes
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "docpress", cfg.Compiler.Binary)
	require.Equal(t, "notes", cfg.Compiler.Target)
	require.Equal(t, "./public", cfg.Output.Directory)
	require.True(t, cfg.Output.Clean)
	require.Equal(t, "gh-pages", cfg.Publish.Branch)
	require.Equal(t, []string{"favicon.ico", "apple-touch-icon.png"}, cfg.Assets.Icons)
	require.Equal(t, "2s", cfg.Watch.QuietWindow)
	require.Equal(t, "30s", cfg.Watch.MaxDelay)
	require.Equal(t, "/", cfg.Site.BasePath)
}

func TestLoad_NormalizesBasePath(t *testing.T) {
	path := writeConfig(t, `
site:
  content_dir: ./notes
  base_path: notes
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/notes/", cfg.Site.BasePath)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_NOTES_TITLE", "Expanded Title")
	path := writeConfig(t, `
site:
  title: ${TEST_NOTES_TITLE}
  content_dir: ./notes
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Expanded Title", cfg.Site.Title)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate_OutputInsideContentDir(t *testing.T) {
	path := writeConfig(t, `
site:
  content_dir: ./notes
output:
  directory: ./notes/public
`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be inside")
}

func TestValidate_BadRetryBackoff(t *testing.T) {
	path := writeConfig(t, `
site:
  content_dir: ./notes
build:
  retry_backoff: quadratic
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate_IconMustBeBareName(t *testing.T) {
	path := writeConfig(t, `
site:
  content_dir: ./notes
assets:
  icons: ["sub/favicon.ico"]
`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "bare file name")
}

func TestValidate_SSHAuthNeedsKeyPath(t *testing.T) {
	path := writeConfig(t, `
site:
  content_dir: ./notes
publish:
  branch: gh-pages
  auth:
    type: ssh
`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "key_path")
}

func TestResolveToken(t *testing.T) {
	t.Setenv(EnvForgeToken, "env-token")
	require.Equal(t, "env-token", ResolveToken(nil))
	require.Equal(t, "explicit", ResolveToken(&AuthConfig{Type: AuthTypeToken, Token: "explicit"}))
}

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":        "/",
		"/":       "/",
		"notes":   "/notes/",
		"/notes":  "/notes/",
		"/notes/": "/notes/",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeBasePath(in), "input %q", in)
	}
}
