package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Site     SiteConfig          `yaml:"site"`
	Compiler CompilerConfig      `yaml:"compiler"`
	Output   OutputConfig        `yaml:"output"`
	Metadata MetadataConfig      `yaml:"metadata"`
	Assets   AssetOverrideConfig `yaml:"assets"`
	Publish  PublishConfig       `yaml:"publish"`
	Build    BuildConfig         `yaml:"build,omitempty"`
	Watch    WatchConfig         `yaml:"watch,omitempty"`
	Notify   NotifyConfig        `yaml:"notify,omitempty"`
	RunLog   RunLogConfig        `yaml:"runlog,omitempty"`
}

// Load loads configuration from the specified file.
//
// A .env/.env.local file (if present) is loaded first so that ${VAR}
// references in the YAML resolve against it; existing process environment
// variables are never overwritten.
func Load(configPath string) (*Config, error) {
	LoadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content so credentials stay
	// out of the file itself.
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Site.Title == "" {
		cfg.Site.Title = "Conference Notes"
	}
	if cfg.Site.ContentDir == "" {
		cfg.Site.ContentDir = "./notes"
	}
	if cfg.Site.AssetsDir == "" {
		cfg.Site.AssetsDir = "./assets"
	}
	cfg.Site.BasePath = NormalizeBasePath(cfg.Site.BasePath)

	if cfg.Compiler.Binary == "" {
		cfg.Compiler.Binary = "docpress"
	}
	if cfg.Compiler.Target == "" {
		cfg.Compiler.Target = "notes"
	}

	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "./public"
		cfg.Output.Clean = true
	}

	if cfg.Metadata.RepoPath == "" {
		cfg.Metadata.RepoPath = "."
	}

	if cfg.Assets.IconSource == "" {
		cfg.Assets.IconSource = "favicon.ico"
	}
	if len(cfg.Assets.Icons) == 0 {
		// The conventional icon pair a docs compiler emits at the output root.
		cfg.Assets.Icons = []string{"favicon.ico", "apple-touch-icon.png"}
	}

	if cfg.Publish.RepoPath == "" {
		cfg.Publish.RepoPath = "."
	}
	if cfg.Publish.Remote == "" {
		cfg.Publish.Remote = "origin"
	}
	if cfg.Publish.Branch == "" {
		cfg.Publish.Branch = "gh-pages"
	}
	if cfg.Publish.Author == "" {
		cfg.Publish.Author = "confpress"
	}
	if cfg.Publish.Email == "" {
		cfg.Publish.Email = "confpress@localhost"
	}

	if cfg.Watch.QuietWindow == "" {
		cfg.Watch.QuietWindow = "2s"
	}
	if cfg.Watch.MaxDelay == "" {
		cfg.Watch.MaxDelay = "30s"
	}

	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "confpress.runs"
	}
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Config{
		Site: SiteConfig{
			Title:      "Conference Session Notes",
			ContentDir: "./notes",
			AssetsDir:  "./assets",
			BasePath:   "/notes",
		},
		Compiler: CompilerConfig{
			Binary:        "docpress",
			Target:        "notes",
			DisableSearch: true,
			StaticAdapt:   true,
		},
		Output: OutputConfig{
			Directory: "./public",
			Clean:     true,
		},
		Metadata: MetadataConfig{
			RepoPath:    ".",
			ForgeAPIURL: "https://api.github.com",
			ForgeRepo:   "example/conference-notes",
			Auth: &AuthConfig{
				Type:  AuthTypeToken,
				Token: "${CONFPRESS_FORGE_TOKEN}",
			},
		},
		Assets: AssetOverrideConfig{
			IconSource: "favicon.ico",
			Icons:      []string{"favicon.ico", "apple-touch-icon.png"},
		},
		Publish: PublishConfig{
			RepoPath: ".",
			Remote:   "origin",
			Branch:   "gh-pages",
			Auth: &AuthConfig{
				Type:  AuthTypeToken,
				Token: "${CONFPRESS_FORGE_TOKEN}",
			},
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
