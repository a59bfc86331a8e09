package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tier labels
const (
	TierTrial       = "trial"
	TierExperiment  = "experiment"
	TierHomogeneity = "homogeneity"
	TierProcess     = "process"
)

// Recorder holds the analyser metrics on its own registry so several
// recorders can coexist in one process
type Recorder struct {
	registry *prometheus.Registry

	summaries      *prometheus.CounterVec
	emptySummaries *prometheus.CounterVec
	samplesRead    prometheus.Counter
	failures       *prometheus.CounterVec
	degenerate     prometheus.Counter
	duration       *prometheus.HistogramVec
}

// NewRecorder registers the analyser metrics on a fresh registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		summaries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trialstats",
			Name:      "summaries_total",
			Help:      "Summaries computed, by tier",
		}, []string{"tier"}),
		emptySummaries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trialstats",
			Name:      "empty_summaries_total",
			Help:      "Summaries computed over no data, by tier",
		}, []string{"tier"}),
		samplesRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "trialstats",
			Name:      "samples_read_total",
			Help:      "Raw samples read from the sample source",
		}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trialstats",
			Name:      "failures_total",
			Help:      "Failed operations, by tier",
		}, []string{"tier"}),
		degenerate: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "trialstats",
			Name:      "homogeneity_degenerate_total",
			Help:      "Homogeneity tests that produced no result",
		}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trialstats",
			Name:      "run_duration_seconds",
			Help:      "Duration of one analyser run, by tier",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4.4min
		}, []string{"tier"}),
	}
}

// Registry exposes the registry for scraping
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Summary counts one computed summary; empty ones are also counted apart
func (r *Recorder) Summary(tier string, empty bool) {
	if r == nil {
		return
	}
	r.summaries.WithLabelValues(tier).Inc()
	if empty {
		r.emptySummaries.WithLabelValues(tier).Inc()
	}
}

// SamplesRead counts raw samples pulled from the source
func (r *Recorder) SamplesRead(n int) {
	if r == nil {
		return
	}
	r.samplesRead.Add(float64(n))
}

// Failure counts one failed operation
func (r *Recorder) Failure(tier string) {
	if r == nil {
		return
	}
	r.failures.WithLabelValues(tier).Inc()
}

// Degenerate counts one homogeneity test without a result
func (r *Recorder) Degenerate() {
	if r == nil {
		return
	}
	r.degenerate.Inc()
}

// Observe records the duration of a run that started at start
func (r *Recorder) Observe(tier string, start time.Time) {
	if r == nil {
		return
	}
	r.duration.WithLabelValues(tier).Observe(time.Since(start).Seconds())
}
