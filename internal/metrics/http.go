package metrics

import (
	"database/sql"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total number of API requests by route family",
		},
		[]string{"family", "method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "API request latency by route family",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"family", "method"},
	)

	httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_response_size_bytes",
			Help:    "API response size by route family",
			Buckets: prometheus.ExponentialBuckets(128, 4, 7), // 128B to 512KB, feed pages dominate
		},
		[]string{"family"},
	)

	httpInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_http_in_flight_requests",
			Help: "Number of API requests being served",
		},
	)

	dbConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chat_db_connections",
			Help: "Database pool connections by state",
		},
		[]string{"state"},
	)
)

// Route families, checked from the last path segment backwards so that
// /workspaces/:id/channels counts as channels rather than workspaces.
var families = map[string]string{
	"messages":      "messages",
	"search":        "search",
	"reactions":     "reactions",
	"conversations": "conversations",
	"members":       "members",
	"channels":      "channels",
	"join":          "join",
	"join-code":     "join",
	"uploads":       "uploads",
	"workspaces":    "workspaces",
	"health":        "health",
	"swagger":       "docs",
}

// RouteFamily maps a gin route template to a low-cardinality family label
func RouteFamily(route string) string {
	if route == "" {
		return "unmatched"
	}
	segments := strings.Split(strings.Trim(route, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if family, ok := families[segments[i]]; ok {
			return family
		}
	}
	return "other"
}

// HTTPStarted marks one request in flight; call the returned func when it ends
func HTTPStarted() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// ObserveHTTP records one finished request. Unmatched routes are folded into a
// single label so scanners cannot grow the series count.
func ObserveHTTP(method, route, status string, seconds float64, size int) {
	family := RouteFamily(route)
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(family, method, route, status).Inc()
	httpDuration.WithLabelValues(family, method).Observe(seconds)
	if size > 0 {
		httpResponseSize.WithLabelValues(family).Observe(float64(size))
	}
}

// SetDBStats publishes the pool state
func SetDBStats(stats sql.DBStats) {
	dbConnections.WithLabelValues("open").Set(float64(stats.OpenConnections))
	dbConnections.WithLabelValues("in_use").Set(float64(stats.InUse))
	dbConnections.WithLabelValues("idle").Set(float64(stats.Idle))
}
