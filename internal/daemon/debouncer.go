package daemon

import (
	"context"
	"log/slog"
	"time"
)

// Trigger is a coalesced request for one pipeline run.
type Trigger struct {
	Reason        string // watch|schedule|manual
	ChangeCount   int
	FirstChange   time.Time
	LastChange    time.Time
	DebounceCause string // quiet|max_delay
}

// Debouncer coalesces bursts of change notices into single run triggers:
// a run fires after QuietWindow without further changes, or after MaxDelay
// since the first change of a burst, whichever comes first. Changes can
// never postpone a run indefinitely.
type Debouncer struct {
	quietWindow time.Duration
	maxDelay    time.Duration
	changes     <-chan ChangeNotice
	triggers    chan<- Trigger
	logger      *slog.Logger

	pending     bool
	firstChange time.Time
	lastChange  time.Time
	count       int
}

func NewDebouncer(quietWindow, maxDelay time.Duration, changes <-chan ChangeNotice, triggers chan<- Trigger, logger *slog.Logger) *Debouncer {
	return &Debouncer{
		quietWindow: quietWindow,
		maxDelay:    maxDelay,
		changes:     changes,
		triggers:    triggers,
		logger:      logger,
	}
}

// Run processes changes until the context is canceled. Single goroutine.
func (d *Debouncer) Run(ctx context.Context) {
	quietTimer := newStoppedTimer()
	maxTimer := newStoppedTimer()
	var quietC, maxC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case notice, ok := <-d.changes:
			if !ok {
				return
			}
			now := time.Now()
			if !d.pending {
				d.pending = true
				d.firstChange = now
				d.count = 0
				resetTimer(maxTimer, d.maxDelay)
				maxC = maxTimer.C
			}
			d.lastChange = now
			d.count++
			resetTimer(quietTimer, d.quietWindow)
			quietC = quietTimer.C
			d.logger.Debug("content change observed",
				slog.String("path", notice.Path), slog.String("op", notice.Op))

		case <-quietC:
			d.emit(ctx, "quiet")
			quietC, maxC = nil, nil
			stopTimer(maxTimer)

		case <-maxC:
			d.emit(ctx, "max_delay")
			quietC, maxC = nil, nil
			stopTimer(quietTimer)
		}
	}
}

func (d *Debouncer) emit(ctx context.Context, cause string) {
	if !d.pending {
		return
	}
	t := Trigger{
		Reason:        "watch",
		ChangeCount:   d.count,
		FirstChange:   d.firstChange,
		LastChange:    d.lastChange,
		DebounceCause: cause,
	}
	d.pending = false
	select {
	case d.triggers <- t:
	case <-ctx.Done():
	}
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	stopTimer(t)
	return t
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetTimer(t *time.Timer, after time.Duration) {
	stopTimer(t)
	t.Reset(after)
}
