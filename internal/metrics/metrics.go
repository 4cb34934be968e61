// Package metrics exposes Prometheus collectors for the clipper service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pipelineRunsTotal          *prometheus.CounterVec
	pipelineStepDuration       *prometheus.HistogramVec
	retryAttemptsTotal         *prometheus.CounterVec
	deployWaitSeconds          *prometheus.HistogramVec
	extractionsTotal           *prometheus.CounterVec
	degradationsTotal          *prometheus.CounterVec
	notificationsTotal         *prometheus.CounterVec
	rateLimitedTotal           *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pipelineRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clipper_pipeline_runs_total",
				Help: "Total number of pipeline runs, labeled by terminal status.",
			},
			[]string{"status"},
		)

		pipelineStepDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clipper_pipeline_step_duration_seconds",
				Help:    "Histogram of pipeline step durations, labeled by step.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"step"},
		)

		retryAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clipper_retry_attempts_total",
				Help: "Total number of failed attempts that triggered a retry, labeled by operation.",
			},
			[]string{"operation"},
		)

		deployWaitSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clipper_deploy_wait_seconds",
				Help:    "Time spent waiting for a published snapshot to become reachable.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"outcome"},
		)

		extractionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clipper_extractions_total",
				Help: "Total number of extractions, labeled by the source that produced the body.",
			},
			[]string{"source"},
		)

		degradationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clipper_degradations_total",
				Help: "Total number of degraded step results, labeled by step.",
			},
			[]string{"step"},
		)

		notificationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clipper_notifications_total",
				Help: "Total number of notifications, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		rateLimitedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clipper_rate_limited_total",
				Help: "Total number of requests rejected by the per-client limiter, labeled by route.",
			},
			[]string{"route"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 30, 120, 600},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePipeline increments the pipeline run counter for the given status.
func ObservePipeline(status string) {
	Init()
	pipelineRunsTotal.WithLabelValues(status).Inc()
}

// ObserveStep records how long one pipeline step took.
func ObserveStep(step string, duration time.Duration) {
	Init()
	pipelineStepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// ObserveRetry counts a failed attempt for the named operation.
func ObserveRetry(operation string) {
	Init()
	retryAttemptsTotal.WithLabelValues(operation).Inc()
}

// ObserveDeployWait records the time until a snapshot became reachable or polling gave up.
func ObserveDeployWait(outcome string, duration time.Duration) {
	Init()
	deployWaitSeconds.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveExtraction counts which source produced extracted content.
func ObserveExtraction(source string) {
	Init()
	extractionsTotal.WithLabelValues(source).Inc()
}

// ObserveDegradation counts a step that returned its configured fallback.
func ObserveDegradation(step string) {
	Init()
	degradationsTotal.WithLabelValues(step).Inc()
}

// ObserveNotification counts a notification outcome (sent, failed, dropped).
func ObserveNotification(outcome string) {
	Init()
	notificationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRateLimited counts a request rejected by the per-client limiter.
func ObserveRateLimited(route string) {
	Init()
	rateLimitedTotal.WithLabelValues(route).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
