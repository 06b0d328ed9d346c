package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReportFinish_OutcomePrecedence(t *testing.T) {
	r := NewReport("run-1", "manual")
	r.recordStage(StagePrepareOutput, StageResultSuccess, time.Millisecond)
	r.recordStage(StageVerifySite, StageResultWarning, time.Millisecond)
	r.Finish()
	require.Equal(t, OutcomeWarning, r.OutcomeValue)

	r = NewReport("run-2", "manual")
	r.recordStage(StageVerifySite, StageResultWarning, time.Millisecond)
	r.recordStage(StagePublish, StageResultFatal, time.Millisecond)
	r.Finish()
	require.Equal(t, OutcomeFailed, r.OutcomeValue)

	r = NewReport("run-3", "manual")
	r.recordStage(StagePrepareOutput, StageResultSuccess, time.Millisecond)
	r.Finish()
	require.Equal(t, OutcomeSuccess, r.OutcomeValue)
}

func TestReportStepRecords_PreservesOrderAndAttachesErrors(t *testing.T) {
	r := NewReport("run-4", "schedule")
	r.recordStage(StagePrepareOutput, StageResultSuccess, 2*time.Millisecond)
	r.recordStage(StageRunCompiler, StageResultFatal, 40*time.Millisecond)
	r.StageRetries[StageRunCompiler] = 2
	r.AddIssue(StageRunCompiler, "stage_failed", "error", "compiler exited with status 1")

	recs := r.StepRecords()
	require.Len(t, recs, 2)
	require.Equal(t, string(StagePrepareOutput), recs[0].Name)
	require.Empty(t, recs[0].Error)
	require.Equal(t, string(StageRunCompiler), recs[1].Name)
	require.Equal(t, string(StageResultFatal), recs[1].Result)
	require.Equal(t, 2, recs[1].Retries)
	require.Equal(t, "compiler exited with status 1", recs[1].Error)
}
