// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Recommendation queries by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "End-to-end duration of a recommendation query",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	CandidatePoolSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_candidate_pool_size",
			Help:    "Number of candidates scored per query",
			Buckets: []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"kind"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_lookups_total",
			Help: "Cache lookups by result (hit, miss, error)",
		},
		[]string{"kind", "result"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_errors_total",
			Help: "Cache backend errors by operation",
		},
		[]string{"operation"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)
)

var CacheBreakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "recommendation_cache_breaker_state",
		Help: "Cache circuit breaker state (0=closed, 1=half-open, 2=open)",
	},
	[]string{"breaker"},
)
