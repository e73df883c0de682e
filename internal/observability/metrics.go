package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search outcome labels.
const (
	StatusOK    = "ok"
	StatusEmpty = "empty"
	StatusError = "error"
)

// Metrics contains the Prometheus metrics for searches and LLM calls.
// All collectors are registered via promauto with the default registry.
type Metrics struct {
	// SearchesTotal counts dispatched searches, labeled by retriever and status.
	SearchesTotal *prometheus.CounterVec

	// SearchDuration observes end-to-end search duration in seconds, labeled by retriever.
	SearchDuration *prometheus.HistogramVec

	// ResourcesReturned counts resources handed back to callers, labeled by retriever.
	ResourcesReturned *prometheus.CounterVec

	// SourceQueries counts individual provider queries, labeled by retriever.
	SourceQueries *prometheus.CounterVec

	// SourceQueryFailures counts provider queries that were skipped after an error.
	SourceQueryFailures *prometheus.CounterVec

	// LLMRequestsTotal counts agent calls, labeled by agent and outcome.
	LLMRequestsTotal *prometheus.CounterVec

	// LLMRequestDuration observes agent call duration in seconds, labeled by agent.
	LLMRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SearchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of dispatched searches by retriever and status",
		}, []string{"retriever", "status"}),
		SearchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of dispatched searches in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"retriever"}),
		ResourcesReturned: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resources_returned_total",
			Help:      "Total number of resources returned by retriever",
		}, []string{"retriever"}),
		SourceQueries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_queries_total",
			Help:      "Total number of individual provider queries",
		}, []string{"retriever"}),
		SourceQueryFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_query_failures_total",
			Help:      "Total number of provider queries skipped after an error",
		}, []string{"retriever"}),
		LLMRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests by agent and outcome",
		}, []string{"agent", "outcome"}),
		LLMRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Duration of LLM requests in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"agent"}),
	}
}

// RecordSearch records a dispatched search.
func (m *Metrics) RecordSearch(retriever, status string, d time.Duration, resources int) {
	m.SearchesTotal.WithLabelValues(retriever, status).Inc()
	m.SearchDuration.WithLabelValues(retriever).Observe(d.Seconds())
	m.ResourcesReturned.WithLabelValues(retriever).Add(float64(resources))
}

// RecordSourceQuery records one provider query. It satisfies
// retrievers.QueryRecorder.
func (m *Metrics) RecordSourceQuery(retriever string, _ int, err error) {
	m.SourceQueries.WithLabelValues(retriever).Inc()
	if err != nil {
		m.SourceQueryFailures.WithLabelValues(retriever).Inc()
	}
}

// RecordLLMRequest records an agent call.
func (m *Metrics) RecordLLMRequest(agent, outcome string, d time.Duration) {
	m.LLMRequestsTotal.WithLabelValues(agent, outcome).Inc()
	m.LLMRequestDuration.WithLabelValues(agent).Observe(d.Seconds())
}
