// Package metrics defines Prometheus metrics for smartsell.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "smartsell"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	})
)

// Health metrics.
var (
	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "1 when the last /healthz probe succeeded, 0 otherwise.",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "1 when the last /readyz probe succeeded, 0 otherwise.",
	})
)

// Dataset metrics.
var (
	DatasetRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dataset_rows",
		Help:      "Number of valid rows in the current snapshot of each dataset.",
	}, []string{"dataset"})

	DatasetSkippedRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dataset_skipped_rows_total",
		Help:      "Total number of rows excluded at load time for data-quality problems.",
	}, []string{"dataset"})

	DatasetLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dataset_loads_total",
		Help:      "Total number of dataset loads by result.",
	}, []string{"dataset", "result"})
)

// Filter engine metrics.
var (
	FilterEvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "filter_evaluations_total",
		Help:      "Total number of filter evaluations by result (ok, empty, invalid).",
	}, []string{"result"})

	FilterDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "filter_duration_seconds",
		Help:      "Duration of filter evaluations in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8), // 50µs .. ~0.8s
	})

	ViewCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "view_cache_hits_total",
		Help:      "Total number of filtered views served from cache.",
	})

	ViewCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "view_cache_misses_total",
		Help:      "Total number of filtered views computed.",
	})
)

// Session metrics.
var (
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Number of open filter sessions.",
	})

	SessionsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_expired_total",
		Help:      "Total number of sessions removed for being idle.",
	})
)
