package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder backed by Prometheus metrics.
type PrometheusRecorder struct {
	once         sync.Once
	stepDuration *prom.HistogramVec
	runDuration  prom.Histogram
	stepResults  *prom.CounterVec
	runOutcomes  *prom.CounterVec
	stepRetries  *prom.CounterVec
	pagesUpdated prom.Counter
	publishes    *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers metrics on reg (a fresh
// registry is created when reg is nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stepDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "confpress",
			Name:      "step_duration_seconds",
			Help:      "Duration of individual pipeline steps",
			Buckets:   prom.DefBuckets,
		}, []string{"step"})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "confpress",
			Name:      "run_duration_seconds",
			Help:      "Total pipeline run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stepResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "confpress",
			Name:      "step_results_total",
			Help:      "Step result counts by outcome",
		}, []string{"step", "result"})
		pr.runOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "confpress",
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"outcome"})
		pr.stepRetries = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "confpress",
			Name:      "step_retries_total",
			Help:      "Step retries after transient failures",
		}, []string{"step"})
		pr.pagesUpdated = prom.NewCounter(prom.CounterOpts{
			Namespace: "confpress",
			Name:      "pages_updated_total",
			Help:      "Pages whose metadata was rewritten",
		})
		pr.publishes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "confpress",
			Name:      "publishes_total",
			Help:      "Publish attempts by result",
		}, []string{"result"})
		reg.MustRegister(pr.stepDuration, pr.runDuration, pr.stepResults,
			pr.runOutcomes, pr.stepRetries, pr.pagesUpdated, pr.publishes)
	})
	return pr
}

// HTTPHandler returns an http.Handler serving the given registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusRecorder) ObserveStepDuration(step string, d time.Duration) {
	if p == nil || p.stepDuration == nil {
		return
	}
	p.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStepResult(step string, result ResultLabel) {
	if p == nil || p.stepResults == nil {
		return
	}
	p.stepResults.WithLabelValues(step, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil || p.runOutcomes == nil {
		return
	}
	p.runOutcomes.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncStepRetry(step string) {
	if p == nil || p.stepRetries == nil {
		return
	}
	p.stepRetries.WithLabelValues(step).Inc()
}

func (p *PrometheusRecorder) IncPagesUpdated(n int) {
	if p == nil || p.pagesUpdated == nil || n <= 0 {
		return
	}
	p.pagesUpdated.Add(float64(n))
}

func (p *PrometheusRecorder) IncPublish(pushed bool) {
	if p == nil || p.publishes == nil {
		return
	}
	result := "unchanged"
	if pushed {
		result = "pushed"
	}
	p.publishes.WithLabelValues(result).Inc()
}
