package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Validate performs configuration validation across all domains.
// Validation order follows dependency order: site first, publish last.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration is nil")
	}
	if err := validateSite(cfg); err != nil {
		return err
	}
	if err := validateBuild(cfg); err != nil {
		return err
	}
	if err := validateAssets(cfg); err != nil {
		return err
	}
	if err := validateWatch(cfg); err != nil {
		return err
	}
	return validatePublish(cfg)
}

func validateSite(cfg *Config) error {
	if cfg.Site.ContentDir == "" {
		return errors.New("site.content_dir cannot be empty")
	}
	if cfg.Output.Directory == "" {
		return errors.New("output.directory cannot be empty")
	}
	// Refuse an output directory inside the content tree; the compiler would
	// recurse into its own output on the next run.
	absContent, err := filepath.Abs(cfg.Site.ContentDir)
	if err != nil {
		return fmt.Errorf("resolve content dir: %w", err)
	}
	absOutput, err := filepath.Abs(cfg.Output.Directory)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}
	if rel, err := filepath.Rel(absContent, absOutput); err == nil {
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("output.directory %s must not be inside site.content_dir %s", cfg.Output.Directory, cfg.Site.ContentDir)
		}
	}
	return nil
}

func validateBuild(cfg *Config) error {
	if cfg.Build.MaxRetries < 0 {
		return errors.New("build.max_retries cannot be negative")
	}
	switch cfg.Build.RetryBackoff {
	case "", RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential:
	default:
		return fmt.Errorf("build.retry_backoff must be fixed|linear|exponential, got %q", cfg.Build.RetryBackoff)
	}
	for _, d := range []struct{ name, val string }{
		{"build.retry_initial_delay", cfg.Build.RetryInitialDelay},
		{"build.retry_max_delay", cfg.Build.RetryMaxDelay},
	} {
		if d.val == "" {
			continue
		}
		if _, err := time.ParseDuration(d.val); err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
	}
	return nil
}

func validateAssets(cfg *Config) error {
	if len(cfg.Assets.Icons) == 0 {
		return errors.New("assets.icons cannot be empty")
	}
	for _, name := range cfg.Assets.Icons {
		if name == "" {
			return errors.New("assets.icons entries cannot be empty")
		}
		if filepath.Base(name) != name {
			return fmt.Errorf("assets.icons entry %q must be a bare file name at the output root", name)
		}
	}
	if cfg.Assets.IconSource == "" {
		return errors.New("assets.icon_source cannot be empty")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	for _, d := range []struct{ name, val string }{
		{"watch.quiet_window", cfg.Watch.QuietWindow},
		{"watch.max_delay", cfg.Watch.MaxDelay},
		{"watch.schedule_interval", cfg.Watch.ScheduleInterval},
	} {
		if d.val == "" {
			continue
		}
		if _, err := time.ParseDuration(d.val); err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
	}
	return nil
}

func validatePublish(cfg *Config) error {
	if cfg.Publish.Branch == "" {
		return errors.New("publish.branch cannot be empty")
	}
	if cfg.Publish.Remote == "" {
		return errors.New("publish.remote cannot be empty")
	}
	if auth := cfg.Publish.Auth; !auth.IsZero() {
		switch auth.Type {
		case AuthTypeToken:
			// Token may come from the environment at publish time.
		case AuthTypeBasic:
			if auth.Username == "" {
				return errors.New("publish.auth.username required for basic auth")
			}
		case AuthTypeSSH:
			if auth.KeyPath == "" {
				return errors.New("publish.auth.key_path required for ssh auth")
			}
		default:
			return fmt.Errorf("unsupported publish.auth.type: %s", auth.Type)
		}
	}
	return nil
}
