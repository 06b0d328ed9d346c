package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/confpress/confpress/internal/config"
	"github.com/confpress/confpress/internal/metrics"
	"github.com/confpress/confpress/internal/retry"
)

func testRunState() *RunState {
	return &RunState{
		RunID:    "test-run",
		Logger:   slog.Default(),
		Recorder: metrics.NoopRecorder{},
		Report:   NewReport("test-run", "manual"),
	}
}

func fastPolicy(maxRetries int) retry.Policy {
	return retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, maxRetries)
}

func TestRunStages_FatalHaltsRun(t *testing.T) {
	rs := testRunState()
	var ran []StageName
	record := func(name StageName) Stage {
		return func(context.Context, *RunState) error {
			ran = append(ran, name)
			return nil
		}
	}

	defs := NewPipeline().
		Add("first", record("first")).
		Add("boom", func(context.Context, *RunState) error {
			ran = append(ran, "boom")
			return NewFatalStageError("boom", errors.New("kaput"))
		}).
		Add("never", record("never")).
		Build()

	err := RunStages(context.Background(), rs, defs, fastPolicy(0))
	require.Error(t, err)
	require.Equal(t, []StageName{"first", "boom"}, ran)

	rs.Report.Finish()
	require.Equal(t, OutcomeFailed, rs.Report.OutcomeValue)
	require.Equal(t, StageResultFatal, rs.Report.StageResults["boom"])
	// The halted stage's successor never appears in the report.
	require.NotContains(t, rs.Report.StageOrder, StageName("never"))
}

func TestRunStages_WarningContinues(t *testing.T) {
	rs := testRunState()
	var ran []StageName

	defs := NewPipeline().
		Add("warns", func(context.Context, *RunState) error {
			ran = append(ran, "warns")
			return NewWarnStageError("warns", errors.New("minor"))
		}).
		Add("after", func(context.Context, *RunState) error {
			ran = append(ran, "after")
			return nil
		}).
		Build()

	err := RunStages(context.Background(), rs, defs, fastPolicy(0))
	require.NoError(t, err)
	require.Equal(t, []StageName{"warns", "after"}, ran)

	rs.Report.Finish()
	require.Equal(t, OutcomeWarning, rs.Report.OutcomeValue)
}

func TestRunStages_TransientRetriesThenSucceeds(t *testing.T) {
	rs := testRunState()
	attempts := 0

	defs := NewPipeline().
		Add("flaky", func(context.Context, *RunState) error {
			attempts++
			if attempts < 3 {
				return NewTransientStageError("flaky", errors.New("blip"))
			}
			return nil
		}).
		Build()

	err := RunStages(context.Background(), rs, defs, fastPolicy(3))
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
	require.Equal(t, 2, rs.Report.StageRetries["flaky"])
	require.Equal(t, StageResultSuccess, rs.Report.StageResults["flaky"])
}

func TestRunStages_TransientRetriesExhausted(t *testing.T) {
	rs := testRunState()
	attempts := 0

	defs := NewPipeline().
		Add("doomed", func(context.Context, *RunState) error {
			attempts++
			return NewTransientStageError("doomed", errors.New("still down"))
		}).
		Build()

	err := RunStages(context.Background(), rs, defs, fastPolicy(2))
	require.Error(t, err)
	require.Equal(t, 3, attempts) // first try + 2 retries
	require.Equal(t, StageResultFatal, rs.Report.StageResults["doomed"])
}

func TestRunStages_PermanentErrorNotRetried(t *testing.T) {
	rs := testRunState()
	attempts := 0

	defs := NewPipeline().
		Add("authfail", func(context.Context, *RunState) error {
			attempts++
			return NewFatalStageError("authfail", errors.New("bad credentials"))
		}).
		Build()

	err := RunStages(context.Background(), rs, defs, fastPolicy(5))
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestRunStages_CanceledContext(t *testing.T) {
	rs := testRunState()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	defs := NewPipeline().
		Add("anything", func(context.Context, *RunState) error { return nil }).
		Build()

	err := RunStages(ctx, rs, defs, fastPolicy(0))
	require.Error(t, err)
	var se *StageError
	require.True(t, errors.As(err, &se))
	require.Equal(t, StageErrorCanceled, se.Kind)

	rs.Report.Finish()
	require.Equal(t, OutcomeCanceled, rs.Report.OutcomeValue)
}

func TestPipelineBuilder_AddIf(t *testing.T) {
	defs := NewPipeline().
		Add("a", func(context.Context, *RunState) error { return nil }).
		AddIf(false, "b", func(context.Context, *RunState) error { return nil }).
		AddIf(true, "c", func(context.Context, *RunState) error { return nil }).
		Build()
	require.Len(t, defs, 2)
	require.Equal(t, StageName("a"), defs[0].Name)
	require.Equal(t, StageName("c"), defs[1].Name)
}

func TestBuilderStages_SkipPublish(t *testing.T) {
	cfg := &config.Config{}
	cfg.Build.SkipPublish = true

	b := NewBuilder(cfg, slog.Default())
	names := []StageName{}
	for _, d := range b.Stages() {
		names = append(names, d.Name)
	}
	require.Equal(t, []StageName{
		StagePrepareOutput, StageDiscoverNotes, StageGenerateMetadata,
		StageRunCompiler, StageOverrideAssets, StageVerifySite,
	}, names)

	cfg.Build.SkipPublish = false
	b = NewBuilder(cfg, slog.Default())
	require.Equal(t, StagePublish, b.Stages()[6].Name)
}
