package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/confpress/confpress/internal/config"
	"github.com/confpress/confpress/internal/runlog"
)

// HistoryCmd implements the 'history' command: list recent runs from the
// persisted run log.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of runs to show" default:"20"`
	RunID string `name:"run" help:"Show step details for a specific run id"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.RunLog.Path == "" {
		return fmt.Errorf("run history is not persisted; set runlog.path in %s", root.Config)
	}

	store, err := runlog.Open(cfg.RunLog.Path)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	ctx := context.Background()

	if h.RunID != "" {
		rec, err := store.ByRunID(ctx, h.RunID)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("run %s not found", h.RunID)
		}
		printRun(*rec)
		for _, step := range rec.Steps {
			fmt.Printf("  %-20s %-8s %s", step.Name, step.Result, step.Duration)
			if step.Retries > 0 {
				fmt.Printf(" (%d retries)", step.Retries)
			}
			if step.Error != "" {
				fmt.Printf("  %s", step.Error)
			}
			fmt.Println()
		}
		return nil
	}

	recs, err := store.Recent(ctx, h.Limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No runs recorded yet")
		return nil
	}
	for _, rec := range recs {
		printRun(rec)
	}
	return nil
}

func printRun(rec runlog.RunRecord) {
	commit := rec.Commit
	if commit == "" {
		commit = "-"
	} else if len(commit) > 8 {
		commit = commit[:8]
	}
	fmt.Printf("%s  %-8s %-8s %-10s %s  %s\n",
		rec.StartedAt.Format("2006-01-02 15:04:05"),
		rec.Trigger, rec.Outcome, rec.Duration.Round(time.Millisecond), commit, rec.RunID)
}
