package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/confpress/confpress/internal/config"
	"github.com/confpress/confpress/internal/daemon"
)

// WatchCmd implements the 'watch' command: daemon mode.
type WatchCmd struct{}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := daemon.New(cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	return d.Run(ctx)
}
