package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/confpress/confpress/internal/config"
	"github.com/confpress/confpress/internal/contrib"
	"github.com/confpress/confpress/internal/notes"
)

// GenerateCmd implements the 'generate' command: metadata only, no build.
type GenerateCmd struct{}

func (g *GenerateCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pages, err := notes.NewDiscovery(cfg.Site.ContentDir).DiscoverPages()
	if err != nil {
		return err
	}

	token := config.ResolveToken(cfg.Metadata.Auth)
	gen := contrib.NewGenerator(cfg.Metadata, token, slog.Default())
	res, err := gen.Generate(ctx, pages)
	if err != nil {
		return fmt.Errorf("generate metadata: %w", err)
	}

	fmt.Printf("Metadata generated: %d pages seen, %d updated\n", res.PagesSeen, res.PagesUpdated)
	if res.LookupErrors > 0 {
		fmt.Printf("Warning: %d contributor lookups fell back to commit author names\n", res.LookupErrors)
	}
	return nil
}
