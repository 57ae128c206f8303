package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcomes reported by list controllers.
const (
	OutcomeApplied = "applied"
	OutcomeStale   = "stale"
	OutcomeFailed  = "failed"
)

// ListFetchMetrics tracks fetches issued by paginated list controllers.
type ListFetchMetrics struct {
	dispatched *prometheus.CounterVec
	outcomes   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewListFetchMetrics registers the list fetch metrics on the provided registerer.
func NewListFetchMetrics(reg prometheus.Registerer) *ListFetchMetrics {
	if reg == nil {
		return &ListFetchMetrics{}
	}
	dispatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "list_fetch_dispatched_total",
		Help: "List fetches dispatched by resource.",
	}, []string{"resource"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "list_fetch_outcome_total",
		Help: "List fetch completions by resource and outcome.",
	}, []string{"resource", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "list_fetch_duration_seconds",
		Help:    "Duration of list fetches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource"})
	reg.MustRegister(dispatched, outcomes, duration)
	return &ListFetchMetrics{
		dispatched: dispatched,
		outcomes:   outcomes,
		duration:   duration,
	}
}

// IncDispatched counts a fetch leaving the controller.
func (m *ListFetchMetrics) IncDispatched(resource string) {
	if m == nil || m.dispatched == nil {
		return
	}
	m.dispatched.WithLabelValues(normalizeLabel(resource)).Inc()
}

// Observe records how a fetch ended and how long it took.
func (m *ListFetchMetrics) Observe(resource, outcome string, took time.Duration) {
	if m == nil || m.outcomes == nil {
		return
	}
	resource = normalizeLabel(resource)
	m.outcomes.WithLabelValues(resource, normalizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(resource).Observe(took.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
