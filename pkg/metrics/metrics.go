package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "animate_submissions_total",
		Help: "Generation submissions by outcome",
	}, []string{"outcome"}) // outcome=accepted|invalid|provider_error

	statusQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "animate_status_queries_total",
		Help: "Task status queries by normalized status or error",
	}, []string{"status"})

	providerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "animate_provider_request_duration_seconds",
		Help:    "Latency of provider API calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"}) // op=submit|query

	cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "animate_task_cache_lookups_total",
		Help: "Terminal task cache lookups by result",
	}, []string{"result"}) // result=hit|miss|error

	sessionOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "animate_session_outcomes_total",
		Help: "Generation sessions by terminal state",
	}, []string{"state"})
)

// RecordSubmission counts a submission attempt.
func RecordSubmission(outcome string) {
	submissionsTotal.WithLabelValues(outcome).Inc()
}

// RecordStatusQuery counts a status query result.
func RecordStatusQuery(status string) {
	statusQueriesTotal.WithLabelValues(status).Inc()
}

// ObserveProvider records how long a provider call took.
func ObserveProvider(op string, started time.Time) {
	providerLatency.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// RecordCacheLookup counts a cache hit, miss or error.
func RecordCacheLookup(result string) {
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordSessionOutcome counts a session reaching a terminal state.
func RecordSessionOutcome(state string) {
	sessionOutcomesTotal.WithLabelValues(state).Inc()
}
