// Package daemon runs confpress in watch mode: filesystem changes and
// periodic schedules feed a debouncer and a serialized run queue, so the
// site is republished shortly after edits without overlapping runs.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/confpress/confpress/internal/config"
	"github.com/confpress/confpress/internal/logfields"
	"github.com/confpress/confpress/internal/metrics"
	"github.com/confpress/confpress/internal/notify"
	"github.com/confpress/confpress/internal/pipeline"
	"github.com/confpress/confpress/internal/runlog"
)

// Daemon wires the watch-mode components together.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	builder *pipeline.Builder

	store    *runlog.Store
	notifier *notify.Notifier
	registry *prom.Registry

	queue     *RunQueue
	watcher   *ContentWatcher
	debouncer *Debouncer
	scheduler gocron.Scheduler
	metricsrv *http.Server
}

// New assembles a daemon from configuration. The run log and notifier are
// optional per config; metrics are enabled when a metrics address is set.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	d := &Daemon{cfg: cfg, logger: logger}

	builder := pipeline.NewBuilder(cfg, logger)
	if cfg.Watch.MetricsAddr != "" {
		d.registry = prom.NewRegistry()
		builder = builder.WithRecorder(metrics.NewPrometheusRecorder(d.registry))
	}
	d.builder = builder

	dbPath := cfg.RunLog.Path
	if dbPath == "" {
		dbPath = ":memory:"
	}
	store, err := runlog.Open(dbPath)
	if err != nil {
		return nil, err
	}
	d.store = store

	notifier, err := notify.NewNotifier(cfg.Notify, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	d.notifier = notifier

	d.queue = NewRunQueue(d.executeRun, logger)
	return d, nil
}

// Run starts all components and blocks until the context is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.shutdown()

	quiet, err := parseDuration(d.cfg.Watch.QuietWindow, 2*time.Second)
	if err != nil {
		return fmt.Errorf("invalid quiet window: %w", err)
	}
	maxDelay, err := parseDuration(d.cfg.Watch.MaxDelay, 30*time.Second)
	if err != nil {
		return fmt.Errorf("invalid max delay: %w", err)
	}

	changes := make(chan ChangeNotice, 64)
	triggers := make(chan Trigger, 1)

	roots := []string{d.cfg.Site.ContentDir}
	if d.cfg.Site.AssetsDir != "" {
		roots = append(roots, d.cfg.Site.AssetsDir)
	}
	watcher, err := NewContentWatcher(roots, changes, d.logger)
	if err != nil {
		return err
	}
	d.watcher = watcher
	if err := watcher.Start(ctx); err != nil {
		return err
	}

	d.debouncer = NewDebouncer(quiet, maxDelay, changes, triggers, d.logger)
	go d.debouncer.Run(ctx)
	go d.queue.Loop(ctx)

	if err := d.startSchedule(); err != nil {
		return err
	}
	d.startMetrics()

	d.logger.Info("daemon started",
		logfields.Path(d.cfg.Site.ContentDir),
		slog.Duration("quiet_window", quiet),
		slog.Duration("max_delay", maxDelay))

	// Initial run so a fresh daemon publishes current content immediately.
	d.queue.Submit(Trigger{Reason: "manual"})

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("daemon stopping")
			return nil
		case t := <-triggers:
			d.queue.Submit(t)
		}
	}
}

func (d *Daemon) executeRun(ctx context.Context, t Trigger) {
	d.logger.Info("starting pipeline run",
		slog.String("reason", t.Reason),
		slog.Int("changes", t.ChangeCount))

	report, err := d.builder.Run(ctx, t.Reason)
	if err != nil {
		d.logger.Error("pipeline run failed", logfields.Error(err))
	}

	rec := runlog.RunRecord{
		RunID:     report.RunID,
		Trigger:   report.Trigger,
		Outcome:   string(report.OutcomeValue),
		StartedAt: report.StartedAt,
		Duration:  report.Duration,
		Commit:    report.Commit,
		Steps:     report.StepRecords(),
	}
	if err := d.store.Record(context.WithoutCancel(ctx), rec); err != nil {
		d.logger.Warn("could not record run history", logfields.Error(err))
	}

	event := notify.RunEvent{
		RunID:    report.RunID,
		Trigger:  report.Trigger,
		Outcome:  string(report.OutcomeValue),
		Commit:   report.Commit,
		Duration: report.Duration.String(),
	}
	if err := d.notifier.PublishRun(context.WithoutCancel(ctx), event); err != nil {
		d.logger.Warn("could not publish run event", logfields.Error(err))
	}
}

func (d *Daemon) startSchedule() error {
	if d.cfg.Watch.ScheduleInterval == "" {
		return nil
	}
	interval, err := time.ParseDuration(d.cfg.Watch.ScheduleInterval)
	if err != nil {
		return fmt.Errorf("invalid schedule interval: %w", err)
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			d.queue.Submit(Trigger{Reason: "schedule"})
		}),
		gocron.WithName("periodic-publish"),
	)
	if err != nil {
		return fmt.Errorf("create periodic job: %w", err)
	}
	s.Start()
	d.scheduler = s
	d.logger.Info("periodic publish enabled", slog.Duration("interval", interval))
	return nil
}

func (d *Daemon) startMetrics() {
	if d.registry == nil {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(d.registry))
	d.metricsrv = &http.Server{Addr: d.cfg.Watch.MetricsAddr, Handler: mux}
	go func() {
		if err := d.metricsrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("metrics server failed", logfields.Error(err))
		}
	}()
	d.logger.Info("metrics exposition enabled", slog.String("addr", d.cfg.Watch.MetricsAddr))
}

func (d *Daemon) shutdown() {
	if d.watcher != nil {
		_ = d.watcher.Stop()
	}
	if d.scheduler != nil {
		_ = d.scheduler.Shutdown()
	}
	if d.metricsrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = d.metricsrv.Shutdown(shutdownCtx)
		cancel()
	}
	d.notifier.Close()
	_ = d.store.Close()
}

// Store exposes the run history (history command, tests).
func (d *Daemon) Store() *runlog.Store { return d.store }

func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	return time.ParseDuration(s)
}
