package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circles_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "circles_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ChangeEventsTotal counts change events by type and direction.
	ChangeEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circles_change_events_total",
		Help: "Total change events published or received",
	}, []string{"event_type", "direction"})

	// QueryCacheLookups counts client query cache lookups by result (hit, miss, shared).
	QueryCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circles_query_cache_lookups_total",
		Help: "Client query cache lookups by result",
	}, []string{"result"})

	// MutationsTotal counts optimistic mutations by kind and outcome.
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circles_optimistic_mutations_total",
		Help: "Optimistic mutations by kind and outcome",
	}, []string{"kind", "outcome"})

	// MutationDuration records how long optimistic mutations wait on the data service.
	MutationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "circles_optimistic_mutation_duration_seconds",
		Help:    "Time from optimistic apply to settle",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// ObserveMutation records the outcome and duration of one optimistic mutation.
func ObserveMutation(kind, outcome string, start time.Time) {
	MutationsTotal.WithLabelValues(kind, outcome).Inc()
	MutationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
