// Package commands defines the confpress CLI surface.
package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"confpress.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Run the full pipeline: metadata, compile, assets, verify, publish"`
	Generate GenerateCmd `cmd:"" help:"Generate page metadata (contributors, uids, fingerprints) only"`
	Publish  PublishCmd  `cmd:"" help:"Publish an existing output tree to the hosting branch"`
	Verify   VerifyCmd   `cmd:"" help:"Verify a generated output tree without building"`
	Watch    WatchCmd    `cmd:"" help:"Watch content and republish on changes"`
	History  HistoryCmd  `cmd:"" help:"Show recent pipeline runs"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; sets up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}
