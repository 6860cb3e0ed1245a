// Package metrics exposes Prometheus instrumentation for gateway calls.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks logical transactions per endpoint and outcome
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runrgateway_requests_total",
			Help: "Total number of logical gateway transactions",
		},
		[]string{"endpoint", "outcome"},
	)

	// AttemptsTotal tracks physical HTTP attempts
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runrgateway_attempts_total",
			Help: "Total number of physical HTTP attempts",
		},
		[]string{"endpoint"},
	)

	// RetriesTotal tracks retries by the error kind that triggered them
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runrgateway_retries_total",
			Help: "Total number of retries",
		},
		[]string{"endpoint", "error_kind"},
	)

	// ErrorsTotal tracks errors surfaced to callers
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runrgateway_errors_total",
			Help: "Total number of errors surfaced to callers",
		},
		[]string{"endpoint", "error_kind"},
	)

	// AttemptLatency tracks per-attempt latency
	AttemptLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "runrgateway_attempt_latency_seconds",
			Help:    "Gateway attempt latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// TokenRotationsRecommended counts rotation hints from the gateway
	TokenRotationsRecommended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "runrgateway_token_rotation_recommended_total",
			Help: "Number of responses recommending token rotation",
		},
	)

	// JobCacheHits tracks job status lookups served from the cache
	JobCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "runrgateway_job_cache_hits_total",
			Help: "Number of job lookups served from the job cache",
		},
	)
)
