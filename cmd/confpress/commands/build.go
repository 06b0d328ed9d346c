package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/confpress/confpress/internal/config"
	"github.com/confpress/confpress/internal/pipeline"
)

// BuildCmd implements the 'build' command: one full pipeline run.
type BuildCmd struct {
	Output      string `short:"o" help:"Override output directory"`
	SkipPublish bool   `help:"Stop after verification; do not touch the hosting branch"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
	if b.SkipPublish {
		cfg.Build.SkipPublish = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder := pipeline.NewBuilder(cfg, slog.Default())
	report, err := builder.Run(ctx, "manual")
	printReport(report)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	return nil
}

func printReport(report *pipeline.Report) {
	if report == nil {
		return
	}
	fmt.Printf("Run %s finished: %s (%s)\n", report.RunID, report.OutcomeValue, report.Duration.Round(time.Millisecond))
	for _, name := range report.StageOrder {
		fmt.Printf("  %-20s %-8s %s\n", name, report.StageResults[name],
			report.StageDurations[name].Round(time.Millisecond))
	}
	for _, issue := range report.Issues {
		fmt.Printf("  [%s] %s: %s\n", issue.Severity, issue.Code, issue.Message)
	}
	if report.Commit != "" {
		fmt.Printf("Published commit %s\n", report.Commit)
	} else if report.Unchanged {
		fmt.Println("Output unchanged; nothing published")
	}
}
