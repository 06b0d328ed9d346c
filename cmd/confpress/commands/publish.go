package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/confpress/confpress/internal/config"
	"github.com/confpress/confpress/internal/publish"
	"github.com/confpress/confpress/internal/workspace"
)

// PublishCmd implements the 'publish' command: push an already generated
// output tree to the hosting branch without rebuilding.
type PublishCmd struct {
	Output string `short:"o" help:"Output tree to publish (defaults to configured output directory)"`
}

func (p *PublishCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	outputDir := cfg.Output.Directory
	if p.Output != "" {
		outputDir = p.Output
	}
	if fi, err := os.Stat(outputDir); err != nil || !fi.IsDir() {
		return fmt.Errorf("output tree not found: %s (run build first)", outputDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws := workspace.NewPersistentManager(cfg.Build.WorkspaceDir, "confpress")
	if err := ws.Create(); err != nil {
		return err
	}
	checkout, err := ws.CreateSubdir("hosting")
	if err != nil {
		return err
	}

	pub := publish.NewPublisher(cfg.Publish, slog.Default())
	res, err := pub.Publish(ctx, outputDir, checkout)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	switch {
	case res.Unchanged:
		fmt.Println("Output unchanged; nothing published")
	case res.Pushed:
		fmt.Printf("Published commit %s to %s\n", res.Commit, cfg.Publish.Branch)
	}
	return nil
}
