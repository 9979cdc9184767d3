// Package observability provides logging, metrics, and tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "folio_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "folio_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// PostOperations counts post service operations by name and outcome.
	PostOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "folio_post_operations_total",
		Help: "Total number of post operations by operation and outcome",
	}, []string{"operation", "outcome"})

	// AuthEvents counts authentication events (login, logout, rejected tokens).
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "folio_auth_events_total",
		Help: "Total number of authentication events by type",
	}, []string{"event"})
)

// RecordPostOperation increments the post operation counter.
func RecordPostOperation(operation string, outcome string) {
	PostOperations.WithLabelValues(operation, outcome).Inc()
}
