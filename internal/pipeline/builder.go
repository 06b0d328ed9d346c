package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/confpress/confpress/internal/compile"
	"github.com/confpress/confpress/internal/config"
	"github.com/confpress/confpress/internal/metrics"
	"github.com/confpress/confpress/internal/retry"
	"github.com/confpress/confpress/internal/workspace"
)

// Builder assembles and runs pipeline executions for a loaded config.
type Builder struct {
	cfg      *config.Config
	logger   *slog.Logger
	recorder metrics.Recorder
	compiler compile.Compiler
	policy   retry.Policy
}

// NewBuilder creates a builder with default collaborators: the configured
// binary compiler and no metrics.
func NewBuilder(cfg *config.Config, logger *slog.Logger) *Builder {
	return &Builder{
		cfg:      cfg,
		logger:   logger,
		recorder: metrics.NoopRecorder{},
		compiler: compile.NewBinaryCompiler(cfg.Compiler),
		policy:   retry.FromBuildConfig(cfg.Build),
	}
}

// WithRecorder swaps in a metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r != nil {
		b.recorder = r
	}
	return b
}

// WithCompiler swaps in a compiler implementation (tests, dry runs).
func (b *Builder) WithCompiler(c compile.Compiler) *Builder {
	if c != nil {
		b.compiler = c
	}
	return b
}

// Stages returns the ordered stage definitions for this configuration.
func (b *Builder) Stages() []StageDef {
	return NewPipeline().
		Add(StagePrepareOutput, b.stagePrepareOutput).
		Add(StageDiscoverNotes, b.stageDiscoverNotes).
		Add(StageGenerateMetadata, b.stageGenerateMetadata).
		Add(StageRunCompiler, b.stageRunCompiler).
		Add(StageOverrideAssets, b.stageOverrideAssets).
		Add(StageVerifySite, b.stageVerifySite).
		AddIf(!b.cfg.Build.SkipPublish, StagePublish, b.stagePublish).
		Build()
}

// Run executes one full pipeline run. The returned report is always
// non-nil, also on failure; err mirrors the report's failed/canceled
// outcome so callers can use either.
func (b *Builder) Run(ctx context.Context, trigger string) (*Report, error) {
	runID := uuid.NewString()
	logger := b.logger.With(slog.String("run_id", runID))

	rs := &RunState{
		RunID:     runID,
		Config:    b.cfg,
		Logger:    logger,
		Workspace: workspace.NewPersistentManager(b.cfg.Build.WorkspaceDir, "confpress"),
		Recorder:  b.recorder,
		Report:    NewReport(runID, trigger),
	}

	err := RunStages(ctx, rs, b.Stages(), b.policy)
	rs.Report.Finish()

	b.recorder.ObserveRunDuration(rs.Report.Duration)
	b.recorder.IncRunOutcome(string(rs.Report.OutcomeValue))

	logger.Info("pipeline run finished",
		slog.String("outcome", string(rs.Report.OutcomeValue)),
		slog.Duration("duration", rs.Report.Duration))

	return rs.Report, err
}
