package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	directoryRefreshes   *prometheus.CounterVec
	directoryStudents    prometheus.Gauge
	directoryRefreshedAt prometheus.Gauge
	loginAttemptsTotal   *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the portal.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		directoryRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_directory_refreshes_total",
			Help: "Student directory refresh attempts by result.",
		}, []string{"result"})

		directoryStudents = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "portal_directory_students",
			Help: "Number of students in the current directory snapshot.",
		})

		directoryRefreshedAt = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "portal_directory_last_refresh_timestamp_seconds",
			Help: "Unix time of the last successful directory refresh.",
		})

		loginAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_login_attempts_total",
			Help: "Login attempts by kind and outcome.",
		}, []string{"kind", "outcome"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			directoryRefreshes,
			directoryStudents,
			directoryRefreshedAt,
			loginAttemptsTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// DirectoryRefreshes exposes the refresh outcome counter.
func DirectoryRefreshes() *prometheus.CounterVec {
	RegisterMetrics()
	return directoryRefreshes
}

// DirectoryStudents exposes the snapshot size gauge.
func DirectoryStudents() prometheus.Gauge {
	RegisterMetrics()
	return directoryStudents
}

// DirectoryRefreshedAt exposes the last successful refresh gauge.
func DirectoryRefreshedAt() prometheus.Gauge {
	RegisterMetrics()
	return directoryRefreshedAt
}

// LoginAttempts exposes the login outcome counter.
func LoginAttempts() *prometheus.CounterVec {
	RegisterMetrics()
	return loginAttemptsTotal
}
