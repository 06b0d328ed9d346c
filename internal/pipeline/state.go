package pipeline

import (
	"log/slog"

	"github.com/confpress/confpress/internal/config"
	"github.com/confpress/confpress/internal/metrics"
	"github.com/confpress/confpress/internal/notes"
	"github.com/confpress/confpress/internal/workspace"
)

// RunState carries everything stages share within a single run. Stages
// communicate only through it; no stage reaches back into the builder.
type RunState struct {
	RunID  string
	Config *config.Config
	Logger *slog.Logger

	Workspace *workspace.Manager
	Recorder  metrics.Recorder

	// Populated by stages as the run progresses.
	OutputDir   string
	CheckoutDir string
	Pages       []notes.Page

	Report *Report
}
