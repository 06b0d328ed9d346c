// Package metrics provides observability hooks for pipeline runs. The
// default NoopRecorder keeps metrics optional: components take a Recorder
// by injection and never check for nil.
package metrics

import "time"

// ResultLabel enumerates step result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for run and step metrics.
type Recorder interface {
	ObserveStepDuration(step string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncStepResult(step string, result ResultLabel)
	IncRunOutcome(outcome string) // success|warning|failed|canceled
	IncStepRetry(step string)
	IncPagesUpdated(n int)
	IncPublish(pushed bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are
// not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStepDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)          {}
func (NoopRecorder) IncStepResult(string, ResultLabel)         {}
func (NoopRecorder) IncRunOutcome(string)                      {}
func (NoopRecorder) IncStepRetry(string)                       {}
func (NoopRecorder) IncPagesUpdated(int)                       {}
func (NoopRecorder) IncPublish(bool)                           {}
