package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	compileDuration prom.Histogram
	passDuration    *prom.HistogramVec
	outcomes        *prom.CounterVec
	artifactBytes   prom.Histogram
	inFlight        prom.Gauge
	swept           prom.Counter
	publishFailures prom.Counter
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		compileDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "latexd",
			Name:      "compile_duration_seconds",
			Help:      "End-to-end duration of compilation requests",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		passDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "latexd",
			Name:      "pass_duration_seconds",
			Help:      "Duration of individual engine passes",
			Buckets:   prom.DefBuckets,
		}, []string{"pass"}),
		outcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "latexd",
			Name:      "compile_outcomes_total",
			Help:      "Compilation outcomes by result and error category",
		}, []string{"outcome", "category"}),
		artifactBytes: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "latexd",
			Name:      "artifact_bytes",
			Help:      "Size of produced PDF artifacts",
			Buckets:   prom.ExponentialBuckets(4096, 4, 8),
		}),
		inFlight: prom.NewGauge(prom.GaugeOpts{
			Namespace: "latexd",
			Name:      "compilations_in_flight",
			Help:      "Compilations currently holding a workspace",
		}),
		swept: prom.NewCounter(prom.CounterOpts{
			Namespace: "latexd",
			Name:      "workspaces_swept_total",
			Help:      "Stale workspaces removed by the sweeper",
		}),
		publishFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: "latexd",
			Name:      "event_publish_failures_total",
			Help:      "Compilation events dropped after exhausting retries",
		}),
	}
	reg.MustRegister(pr.compileDuration, pr.passDuration, pr.outcomes, pr.artifactBytes, pr.inFlight, pr.swept, pr.publishFailures)
	return pr
}

func (p *PrometheusRecorder) ObserveCompileDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.compileDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObservePassDuration(pass int, d time.Duration) {
	if p == nil {
		return
	}
	p.passDuration.WithLabelValues(strconv.Itoa(pass)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCompileOutcome(outcome OutcomeLabel, category string) {
	if p == nil {
		return
	}
	p.outcomes.WithLabelValues(string(outcome), category).Inc()
}

func (p *PrometheusRecorder) ObserveArtifactBytes(n int) {
	if p == nil {
		return
	}
	p.artifactBytes.Observe(float64(n))
}

func (p *PrometheusRecorder) AddInFlight(delta int) {
	if p == nil {
		return
	}
	p.inFlight.Add(float64(delta))
}

func (p *PrometheusRecorder) AddWorkspacesSwept(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.swept.Add(float64(n))
}

func (p *PrometheusRecorder) IncEventPublishFailure() {
	if p == nil {
		return
	}
	p.publishFailures.Inc()
}
