// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the console.
package observability

import "github.com/prometheus/client_golang/prometheus"

// BackendBuckets suits vector database round trips, from 5ms to 10s.
var BackendBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var (
	// RequestsTotal counts HTTP requests by method, status class and route.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vdbconsole_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "route"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vdbconsole_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ViewsActive tracks open grid views across all connections.
	ViewsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vdbconsole_views_active",
			Help: "Open grid views",
		},
	)

	// ConnectionsActive tracks open backend connections.
	ConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vdbconsole_connections_active",
			Help: "Open backend connections",
		},
	)

	// GridActionsTotal counts toolbar actions by view kind, action and outcome.
	GridActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vdbconsole_grid_actions_total",
			Help: "Grid toolbar actions",
		},
		[]string{"view", "action", "status"},
	)

	// BackendRequestsTotal counts catalog calls by backend, operation and outcome.
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vdbconsole_backend_requests_total",
			Help: "Backend requests",
		},
		[]string{"backend", "op", "status"},
	)

	// BackendLatency records catalog call latency in seconds.
	BackendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vdbconsole_backend_latency_seconds",
			Help:    "Backend latency",
			Buckets: BackendBuckets,
		},
		[]string{"backend", "op"},
	)

	// ConnectRejectedTotal counts connect attempts rejected by the limiter.
	ConnectRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vdbconsole_connect_rejected_total",
			Help: "Rejected connect attempts",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		ViewsActive,
		ConnectionsActive,
		GridActionsTotal,
		BackendRequestsTotal,
		BackendLatency,
		ConnectRejectedTotal,
	)
}
