package daemon

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunQueue_SerializesRuns(t *testing.T) {
	var concurrent, maxConcurrent atomic.Int32
	done := make(chan string, 10)

	q := NewRunQueue(func(_ context.Context, tr Trigger) {
		n := concurrent.Add(1)
		if n > maxConcurrent.Load() {
			maxConcurrent.Store(n)
		}
		time.Sleep(20 * time.Millisecond)
		concurrent.Add(-1)
		done <- tr.Reason
	}, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Loop(ctx)

	q.Submit(Trigger{Reason: "first"})
	time.Sleep(5 * time.Millisecond)
	q.Submit(Trigger{Reason: "second"})

	require.Equal(t, "first", <-done)
	require.Equal(t, "second", <-done)
	require.EqualValues(t, 1, maxConcurrent.Load(), "runs must never overlap")
}

func TestRunQueue_NewerTriggerReplacesQueued(t *testing.T) {
	block := make(chan struct{})
	done := make(chan string, 10)

	q := NewRunQueue(func(_ context.Context, tr Trigger) {
		if tr.Reason == "running" {
			<-block
		}
		done <- tr.Reason
	}, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Loop(ctx)

	q.Submit(Trigger{Reason: "running"})
	require.Eventually(t, q.Running, time.Second, time.Millisecond)

	// Both arrive while the first run executes; only the newest survives.
	q.Submit(Trigger{Reason: "stale"})
	q.Submit(Trigger{Reason: "newest"})
	close(block)

	require.Equal(t, "running", <-done)
	require.Equal(t, "newest", <-done)

	select {
	case extra := <-done:
		t.Fatalf("unexpected extra run: %s", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRunQueue_ExecutingRunNotPreempted(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	q := NewRunQueue(func(_ context.Context, tr Trigger) {
		if tr.Reason == "long" {
			close(started)
			<-release
			finished.Store(true)
		}
	}, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Loop(ctx)

	q.Submit(Trigger{Reason: "long"})
	<-started

	// A new trigger while running must not interrupt the executing run.
	q.Submit(Trigger{Reason: "followup"})
	require.False(t, finished.Load())
	close(release)
	require.Eventually(t, finished.Load, time.Second, time.Millisecond)
}
