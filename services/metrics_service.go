package services

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"panelix-setup/internal/config"
	"panelix-setup/internal/env"
	"panelix-setup/internal/logger"
)

var (
	requestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "setup_http_request_total",
			Help: "Total HTTP requests handled by the setup server",
		},
		[]string{"endpoint"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "setup_http_request_duration_seconds",
			Help:    "Duration of HTTP requests handled by the setup server",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	errorCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "setup_http_request_errors_total",
			Help: "HTTP requests answered with a 4xx or 5xx status",
		},
		[]string{"endpoint"},
	)

	runCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "setup_run_total",
			Help: "Install and update runs by outcome",
		},
		[]string{"operation", "outcome"},
	)

	stepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "setup_step_duration_seconds",
			Help:    "Duration of individual install and migration steps",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"phase", "step"},
	)

	totalRequests int64
	errorRequests int64
)

func init() {
	prometheus.MustRegister(requestCount)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(errorCount)
	prometheus.MustRegister(runCount)
	prometheus.MustRegister(stepDuration)
}

func IncrementRequestCount(endpoint string) {
	requestCount.WithLabelValues(endpoint).Inc()
	atomic.AddInt64(&totalRequests, 1)
}

func RecordRequestDuration(endpoint string, seconds float64) {
	requestDuration.WithLabelValues(endpoint).Observe(seconds)
}

func IncrementErrorCount(endpoint string) {
	errorCount.WithLabelValues(endpoint).Inc()
	atomic.AddInt64(&errorRequests, 1)
}

// GetTotalRequestCount returns the in-process request counter used by
// the health endpoint. Prometheus counters cannot be read back cheaply,
// so a local counter is kept alongside.
func GetTotalRequestCount() int64 {
	return atomic.LoadInt64(&totalRequests)
}

func GetTotalErrorCount() int64 {
	return atomic.LoadInt64(&errorRequests)
}

// RecordRunOutcome counts one finished install or update run.
func RecordRunOutcome(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	runCount.WithLabelValues(operation, outcome).Inc()
}

// RecordStepDuration observes how long a single step of a phase took.
func RecordStepDuration(phase, step string, seconds float64) {
	stepDuration.WithLabelValues(phase, step).Observe(seconds)
}

/**
 * Push the collected metrics to the configured pushgateway
 * @description
 * - CLI runs are short lived, so metrics are pushed at the end of a run
 *   rather than scraped
 * - In server mode /metrics is scraped directly and no push happens
 * - A missing pushgateway address disables the push silently
 * - Push failures are logged and swallowed; metrics never fail a run
 */
func PushMetrics(job string) {
	addr := config.Config.Metrics.Pushgateway
	if addr == "" || env.Daemon {
		return
	}
	err := push.New(addr, job).
		Gatherer(prometheus.DefaultGatherer).
		Push()
	if err != nil {
		logger.Warnf("push metrics to %s failed: %v", addr, err)
	}
}
