// Package compile owns the invocation contract of the external documentation
// compiler. The compiler's internal behavior is out of scope; confpress only
// assembles its flags, runs it, and classifies failure.
package compile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"

	"github.com/confpress/confpress/internal/config"
	"github.com/confpress/confpress/internal/logfields"
)

// ErrCompilerFailed wraps any non-zero compiler exit.
var ErrCompilerFailed = errors.New("documentation compiler failed")

// ErrCompilerNotFound indicates the configured binary is not on PATH.
var ErrCompilerNotFound = errors.New("documentation compiler binary not found")

// Invocation carries everything the compiler contract requires.
type Invocation struct {
	ContentDir string // directory of note pages
	OutputDir  string // must be explicitly writable; created if missing
	BasePath   string // hosting base path prefix
}

// Compiler abstracts the external compiler so tests and dry runs can
// substitute a fake without touching stage logic.
type Compiler interface {
	Compile(ctx context.Context, inv Invocation) error
}

// BinaryCompiler executes the configured compiler binary.
type BinaryCompiler struct {
	cfg config.CompilerConfig
}

// NewBinaryCompiler creates a compiler wrapper around the configured binary.
func NewBinaryCompiler(cfg config.CompilerConfig) *BinaryCompiler {
	return &BinaryCompiler{cfg: cfg}
}

// Compile runs the external compiler with the full invocation surface:
// content target, explicit output directory, search-indexing toggle,
// static-hosting rewrite toggle, and hosting base path.
func (c *BinaryCompiler) Compile(ctx context.Context, inv Invocation) error {
	binPath, err := exec.LookPath(c.cfg.Binary)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCompilerNotFound, c.cfg.Binary)
	}

	// The output directory must exist and be writable before the compiler
	// runs; it never creates its own target.
	if err := os.MkdirAll(inv.OutputDir, 0o750); err != nil {
		return fmt.Errorf("prepare compiler output directory: %w", err)
	}

	args := []string{"build", c.cfg.Target,
		"--source", inv.ContentDir,
		"--output", inv.OutputDir,
		"--base-path", inv.BasePath,
	}
	if c.cfg.DisableSearch {
		args = append(args, "--no-search-index")
	}
	if c.cfg.StaticAdapt {
		args = append(args, "--static-adapt")
	}
	args = append(args, c.cfg.ExtraArgs...)

	// #nosec G204 - binPath resolves the configured compiler binary
	cmd := exec.CommandContext(ctx, binPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	slog.Info("Running documentation compiler",
		logfields.Name(c.cfg.Binary),
		slog.String("target", c.cfg.Target),
		logfields.Path(inv.OutputDir),
		slog.String("base_path", inv.BasePath))

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %w", ErrCompilerFailed, err)
	}
	return nil
}

// DetectVersion attempts to detect the version of the compiler binary on PATH.
// Returns "" when the binary or a parseable version is unavailable.
func DetectVersion(ctx context.Context, binary string) string {
	binPath, err := exec.LookPath(binary)
	if err != nil {
		return ""
	}
	// #nosec G204 - binPath resolves the configured compiler binary
	cmd := exec.CommandContext(ctx, binPath, "version")
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return ParseVersion(string(output))
}

var versionRegex = regexp.MustCompile(`v?(\d+\.\d+\.\d+)`)

// ParseVersion extracts the semantic version from compiler version output.
func ParseVersion(output string) string {
	matches := versionRegex.FindStringSubmatch(output)
	if len(matches) >= 2 {
		return matches[1]
	}
	return ""
}
