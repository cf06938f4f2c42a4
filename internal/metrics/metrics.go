// Package metrics registers the Prometheus collectors for the recommender:
// API traffic, pipeline outcomes, and the latency of the two outbound calls
// every request depends on (embedding and vector search).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// RecommendOutcomes counts pipeline results by classification:
	// ok, invalid_query, no_results, embedding_error, index_error, internal_error.
	RecommendOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_outcomes_total",
			Help: "Recommendation pipeline outcomes by classification",
		},
		[]string{"outcome"},
	)

	EmbeddingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "embedding_request_duration_seconds",
			Help:    "Duration of embedding provider calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	IndexQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vector_index_request_duration_seconds",
			Help:    "Duration of vector index calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	IndexQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vector_index_errors_total",
			Help: "Total number of failed vector index calls",
		},
		[]string{"operation"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, path, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	APIRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveIndexCall records the duration of one vector index call and counts
// the error, if any.
func ObserveIndexCall(operation string, duration time.Duration, err error) {
	IndexQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		IndexQueryErrors.WithLabelValues(operation).Inc()
	}
}
