// Package assets implements the post-compile asset override step.
//
// The compiler emits default icon files at the output root. This step deletes
// the configured pair and copies the repository-provided icon over both
// paths. One of the replacements is known not to take visible effect in the
// rendered pages (the HTML keeps referencing a compiler-hashed asset); that
// defect is detected and reported by the sitecheck package rather than
// guessed at here.
package assets

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/confpress/confpress/internal/config"
	"github.com/confpress/confpress/internal/logfields"
)

// Overrider replaces generated icon files with the repository-provided icon.
type Overrider struct {
	cfg       config.AssetOverrideConfig
	assetsDir string
}

// NewOverrider creates an overrider reading replacement assets from assetsDir.
func NewOverrider(cfg config.AssetOverrideConfig, assetsDir string) *Overrider {
	return &Overrider{cfg: cfg, assetsDir: assetsDir}
}

// Apply deletes each configured icon at the output root and copies the
// repository icon over the vacated path. A missing generated icon aborts:
// the contract assumes the compiler produced its defaults, and a mismatch
// means the output tree is not what this step was written against.
func (o *Overrider) Apply(outputDir string) error {
	source := filepath.Join(o.assetsDir, o.cfg.IconSource)
	if _, err := os.Stat(source); err != nil {
		return fmt.Errorf("replacement icon not found: %s", source)
	}

	for _, name := range o.cfg.Icons {
		target := filepath.Join(outputDir, name)
		if _, err := os.Stat(target); err != nil {
			return fmt.Errorf("expected generated icon missing from output: %s", name)
		}
		if err := os.Remove(target); err != nil {
			return fmt.Errorf("delete generated icon %s: %w", name, err)
		}
		if err := copyFile(source, target); err != nil {
			return fmt.Errorf("copy replacement icon to %s: %w", name, err)
		}
		slog.Info("Overrode generated icon", logfields.Name(name), logfields.Path(source))
	}

	return nil
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	dstFile, err := os.Create(filepath.Clean(dst))
	if err != nil {
		return err
	}
	defer func() {
		_ = dstFile.Close()
	}()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, srcInfo.Mode())
}
