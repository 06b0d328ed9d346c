package daemon

import (
	"context"
	"log/slog"
	"sync"
)

// RunFunc executes one pipeline run for a trigger.
type RunFunc func(ctx context.Context, t Trigger)

// RunQueue serializes pipeline runs: at most one run executes at a time,
// and at most one trigger waits. A newer trigger replaces the waiting one
// rather than queueing behind it; the waiting run was never started, so
// nothing is lost. An executing run is never preempted.
type RunQueue struct {
	run    RunFunc
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	waiting *Trigger
	wakeup  chan struct{}
}

func NewRunQueue(run RunFunc, logger *slog.Logger) *RunQueue {
	return &RunQueue{run: run, logger: logger, wakeup: make(chan struct{}, 1)}
}

// Submit hands a trigger to the queue. It never blocks on the run itself.
func (q *RunQueue) Submit(t Trigger) {
	q.mu.Lock()
	if q.waiting != nil {
		q.logger.Info("replacing queued run with newer trigger",
			slog.String("old_reason", q.waiting.Reason),
			slog.String("new_reason", t.Reason))
	}
	q.waiting = &t
	q.mu.Unlock()

	select {
	case q.wakeup <- struct{}{}:
	default:
	}
}

// Running reports whether a run is currently executing.
func (q *RunQueue) Running() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Loop drains triggers until the context is canceled. Single goroutine.
func (q *RunQueue) Loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.wakeup:
		}

		for {
			q.mu.Lock()
			t := q.waiting
			q.waiting = nil
			if t == nil {
				q.mu.Unlock()
				break
			}
			q.running = true
			q.mu.Unlock()

			q.run(ctx, *t)

			q.mu.Lock()
			q.running = false
			q.mu.Unlock()

			if ctx.Err() != nil {
				return
			}
		}
	}
}
