// Package metrics exposes Prometheus collectors for feed health.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ctfterm"

// Fetch outcomes used as the "outcome" label.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeStale = "stale"
)

// Recorder holds every collector. A nil *Recorder records nothing.
type Recorder struct {
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	rows          *prometheus.GaugeVec
	dropped       *prometheus.CounterVec
	lastSuccess   *prometheus.GaugeVec
	merges        *prometheus.CounterVec
	actions       *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "total",
			Help:      "Feed fetches by feed and outcome.",
		}, []string{"feed", "outcome"}),
		fetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Time to fetch and parse one feed.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"feed"}),
		rows: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "rows",
			Help:      "Rows extracted by the latest fetch.",
		}, []string{"feed"}),
		dropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "dropped_rows_total",
			Help:      "Rows skipped because they had too few cells.",
		}, []string{"feed"}),
		lastSuccess: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the latest successful fetch.",
		}, []string{"feed"}),
		merges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "merges_total",
			Help:      "Batches merged into the dashboard by policy.",
		}, []string{"policy"}),
		actions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "actions_total",
			Help:      "Input actions applied by the dashboard.",
		}, []string{"action"}),
	}
}

// ObserveFetch records one fetch attempt.
func (r *Recorder) ObserveFetch(feed, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.fetches.WithLabelValues(feed, outcome).Inc()
	r.fetchDuration.WithLabelValues(feed).Observe(d.Seconds())
	if outcome == OutcomeOK {
		r.lastSuccess.WithLabelValues(feed).SetToCurrentTime()
	}
}

// SetRows records how many rows the latest fetch produced.
func (r *Recorder) SetRows(feed string, n int) {
	if r == nil {
		return
	}
	r.rows.WithLabelValues(feed).Set(float64(n))
}

// AddDropped counts rows skipped during conversion.
func (r *Recorder) AddDropped(feed string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.dropped.WithLabelValues(feed).Add(float64(n))
}

// ObserveMerge counts a merged batch.
func (r *Recorder) ObserveMerge(policy string) {
	if r == nil {
		return
	}
	r.merges.WithLabelValues(policy).Inc()
}

// ObserveAction counts an applied input action.
func (r *Recorder) ObserveAction(action string) {
	if r == nil {
		return
	}
	r.actions.WithLabelValues(action).Inc()
}

// Handler serves the metrics gathered from g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
