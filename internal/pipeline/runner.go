package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/confpress/confpress/internal/logfields"
	"github.com/confpress/confpress/internal/metrics"
	"github.com/confpress/confpress/internal/retry"
)

// RunStages executes stages in order, recording timing, retrying transient
// failures per policy, and stopping at the first fatal error. A failed
// stage never lets its successors run.
func RunStages(ctx context.Context, rs *RunState, defs []StageDef, policy retry.Policy) error {
	for _, st := range defs {
		select {
		case <-ctx.Done():
			se := NewCanceledStageError(st.Name, ctx.Err())
			rs.Report.recordStage(st.Name, StageResultCanceled, 0)
			rs.Recorder.IncStepResult(string(st.Name), metrics.ResultCanceled)
			return se
		default:
		}

		t0 := time.Now()
		err := runStageWithRetry(ctx, rs, st, policy)
		dur := time.Since(t0)

		result := classify(err)
		rs.Report.recordStage(st.Name, result, dur)
		rs.Recorder.ObserveStepDuration(string(st.Name), dur)
		rs.Recorder.IncStepResult(string(st.Name), resultLabel(result))

		switch result {
		case StageResultSuccess:
			rs.Logger.Debug("stage completed",
				logfields.Stage(string(st.Name)), logfields.DurationMS(float64(dur.Milliseconds())))
		case StageResultWarning:
			var se *StageError
			if errors.As(err, &se) {
				rs.Report.AddIssue(st.Name, "stage_warning", "warning", se.Err.Error())
			}
			rs.Logger.Warn("stage completed with warnings",
				logfields.Stage(string(st.Name)), logfields.Error(err))
		case StageResultFatal, StageResultCanceled:
			var se *StageError
			if errors.As(err, &se) {
				rs.Report.AddIssue(st.Name, "stage_failed", "error", se.Err.Error())
			}
			rs.Logger.Error("stage failed, aborting run",
				logfields.Stage(string(st.Name)), logfields.Error(err))
			return err
		}
	}
	return nil
}

// runStageWithRetry runs a single stage, retrying transient fatal errors.
func runStageWithRetry(ctx context.Context, rs *RunState, st StageDef, policy retry.Policy) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = st.Fn(ctx, rs)

		var se *StageError
		if lastErr == nil || !errors.As(lastErr, &se) {
			return lastErr
		}
		if se.Kind != StageErrorFatal || !se.Transient || attempt >= policy.MaxRetries {
			return lastErr
		}

		delay := policy.Delay(attempt + 1)
		rs.Report.StageRetries[st.Name]++
		rs.Recorder.IncStepRetry(string(st.Name))
		rs.Logger.Warn("transient stage failure, retrying",
			logfields.Stage(string(st.Name)),
			logfields.Error(se.Err),
			logfields.DurationMS(float64(delay.Milliseconds())))

		select {
		case <-ctx.Done():
			return NewCanceledStageError(st.Name, ctx.Err())
		case <-time.After(delay):
		}
	}
}

func resultLabel(r StageResult) metrics.ResultLabel {
	switch r {
	case StageResultWarning:
		return metrics.ResultWarning
	case StageResultFatal:
		return metrics.ResultFatal
	case StageResultCanceled:
		return metrics.ResultCanceled
	default:
		return metrics.ResultSuccess
	}
}

func classify(err error) StageResult {
	if err == nil {
		return StageResultSuccess
	}
	var se *StageError
	if !errors.As(err, &se) {
		return StageResultFatal
	}
	switch se.Kind {
	case StageErrorWarning:
		return StageResultWarning
	case StageErrorCanceled:
		return StageResultCanceled
	default:
		return StageResultFatal
	}
}
