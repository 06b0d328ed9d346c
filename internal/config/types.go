package config

import "strings"

// AuthType enumerates supported authentication methods (stringly for YAML compatibility).
type AuthType string

const (
	AuthTypeNone  AuthType = "none"
	AuthTypeSSH   AuthType = "ssh"
	AuthTypeToken AuthType = "token"
	AuthTypeBasic AuthType = "basic"
)

// AuthConfig represents authentication configuration for git and forge access.
type AuthConfig struct {
	Type     AuthType `yaml:"type"` // ssh|token|basic|none
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Token    string   `yaml:"token,omitempty"`
	KeyPath  string   `yaml:"key_path,omitempty"`
}

// IsZero reports whether no auth method is specified.
func (a *AuthConfig) IsZero() bool { return a == nil || a.Type == "" || a.Type == AuthTypeNone }

// SiteConfig describes the note collection and how it is served.
type SiteConfig struct {
	Title      string `yaml:"title"`
	ContentDir string `yaml:"content_dir"`          // directory holding authored note pages
	AssetsDir  string `yaml:"assets_dir,omitempty"` // repository-provided static assets (icons etc.)
	BasePath   string `yaml:"base_path,omitempty"`  // hosting base path prefix, e.g. /notes
}

// CompilerConfig is the invocation contract for the external documentation compiler.
// The compiler itself is an external collaborator; only its flags are owned here.
type CompilerConfig struct {
	Binary        string   `yaml:"binary,omitempty"` // compiler binary name (resolved on PATH)
	Target        string   `yaml:"target,omitempty"` // content target name passed to the compiler
	ExtraArgs     []string `yaml:"extra_args,omitempty"`
	DisableSearch bool     `yaml:"disable_search"` // disable full-text search indexing
	StaticAdapt   bool     `yaml:"static_adapt"`   // rewrite links/assets for static hosting
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // clean output directory before build
}

// MetadataConfig controls contributor attribution generation.
type MetadataConfig struct {
	RepoPath        string      `yaml:"repo_path,omitempty"` // git repository holding the note pages (default ".")
	ForgeAPIURL     string      `yaml:"forge_api_url,omitempty"`
	ForgeRepo       string      `yaml:"forge_repo,omitempty"` // owner/name on the forge, for display-name resolution
	Auth            *AuthConfig `yaml:"auth,omitempty"`
	MaxContributors int         `yaml:"max_contributors,omitempty"` // 0 = unlimited
}

// AssetOverrideConfig names the generated icon files replaced after compilation.
type AssetOverrideConfig struct {
	IconSource string   `yaml:"icon_source,omitempty"` // repository-provided icon, relative to assets_dir
	Icons      []string `yaml:"icons,omitempty"`       // output-root file names to delete and replace
}

// PublishConfig describes the hosting branch target.
type PublishConfig struct {
	RepoPath string      `yaml:"repo_path,omitempty"` // local repository to publish from (default ".")
	Remote   string      `yaml:"remote,omitempty"`    // remote name (default "origin")
	Branch   string      `yaml:"branch"`              // hosting branch, e.g. gh-pages
	Auth     *AuthConfig `yaml:"auth,omitempty"`
	Author   string      `yaml:"author,omitempty"` // commit author name
	Email    string      `yaml:"email,omitempty"`  // commit author email
}

// RetryBackoffMode enumerates backoff growth strategies.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// BuildConfig holds pipeline tuning knobs. All zero values trigger sensible defaults.
type BuildConfig struct {
	SkipPublish bool `yaml:"skip_publish,omitempty"` // stop after verify (CI dry runs)
	// Retry policy fields apply to transient stage failures only; permanent
	// failures (auth, malformed content) abort immediately.
	MaxRetries        int              `yaml:"max_retries,omitempty"`         // retry attempts after first failure (default 2)
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff,omitempty"`       // fixed|linear|exponential (default linear)
	RetryInitialDelay string           `yaml:"retry_initial_delay,omitempty"` // duration string (default 1s)
	RetryMaxDelay     string           `yaml:"retry_max_delay,omitempty"`     // cap for growth (default 30s)
	WorkspaceDir      string           `yaml:"workspace_dir,omitempty"`       // staging base dir (default system temp)
}

// WatchConfig controls daemon mode triggers.
type WatchConfig struct {
	QuietWindow      string `yaml:"quiet_window,omitempty"`      // debounce quiet window (default 2s)
	MaxDelay         string `yaml:"max_delay,omitempty"`         // debounce cap (default 30s)
	ScheduleInterval string `yaml:"schedule_interval,omitempty"` // periodic republish ("" = disabled)
	MetricsAddr      string `yaml:"metrics_addr,omitempty"`      // Prometheus exposition address ("" = disabled)
}

// NotifyConfig controls run-outcome event publication.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// RunLogConfig controls run-history persistence.
type RunLogConfig struct {
	Path string `yaml:"path,omitempty"` // SQLite file path ("" = in-memory, not persisted)
}

// NormalizeBasePath trims and slash-wraps a hosting base path ("" and "/" mean root).
func NormalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimSuffix(p, "/") + "/"
}
