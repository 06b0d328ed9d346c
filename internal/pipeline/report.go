package pipeline

import (
	"time"

	"github.com/confpress/confpress/internal/runlog"
	"github.com/confpress/confpress/internal/sitecheck"
)

// Outcome is the final status of a run.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Issue is a recorded problem from any stage.
type Issue struct {
	Stage    StageName
	Code     string
	Severity string
	Message  string
}

// Report accumulates per-stage results and derives the run outcome.
type Report struct {
	RunID     string
	Trigger   string
	StartedAt time.Time
	Duration  time.Duration

	StageOrder     []StageName
	StageDurations map[StageName]time.Duration
	StageResults   map[StageName]StageResult
	StageRetries   map[StageName]int
	Issues         []Issue

	PagesSeen    int
	PagesUpdated int
	SiteIssues   []sitecheck.Issue
	Commit       string
	Pushed       bool
	Unchanged    bool

	OutcomeValue Outcome
}

func NewReport(runID, trigger string) *Report {
	return &Report{
		RunID:          runID,
		Trigger:        trigger,
		StartedAt:      time.Now(),
		StageDurations: make(map[StageName]time.Duration),
		StageResults:   make(map[StageName]StageResult),
		StageRetries:   make(map[StageName]int),
	}
}

func (r *Report) recordStage(name StageName, result StageResult, d time.Duration) {
	r.StageOrder = append(r.StageOrder, name)
	r.StageResults[name] = result
	r.StageDurations[name] = d
}

// AddIssue records a problem without changing control flow.
func (r *Report) AddIssue(stage StageName, code, severity, message string) {
	r.Issues = append(r.Issues, Issue{Stage: stage, Code: code, Severity: severity, Message: message})
}

// Finish stamps the duration and derives the outcome from stage results.
func (r *Report) Finish() {
	r.Duration = time.Since(r.StartedAt)
	r.OutcomeValue = OutcomeSuccess
	for _, res := range r.StageResults {
		switch res {
		case StageResultCanceled:
			r.OutcomeValue = OutcomeCanceled
			return
		case StageResultFatal:
			r.OutcomeValue = OutcomeFailed
			return
		case StageResultWarning:
			r.OutcomeValue = OutcomeWarning
		}
	}
}

// StepRecords converts the report into run log step records, preserving
// execution order.
func (r *Report) StepRecords() []runlog.StepRecord {
	recs := make([]runlog.StepRecord, 0, len(r.StageOrder))
	for _, name := range r.StageOrder {
		rec := runlog.StepRecord{
			Name:     string(name),
			Result:   string(r.StageResults[name]),
			Duration: r.StageDurations[name],
			Retries:  r.StageRetries[name],
		}
		for _, issue := range r.Issues {
			if issue.Stage == name && issue.Severity == "error" {
				rec.Error = issue.Message
				break
			}
		}
		recs = append(recs, rec)
	}
	return recs
}
