// Package metrics holds the Prometheus collectors exposed at /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mealmatch",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mealmatch",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mealmatch",
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "LINE push deliveries by message kind and result.",
		},
		[]string{"kind", "result"},
	)

	matchesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mealmatch",
			Subsystem: "matching",
			Name:      "matches_created_total",
			Help:      "Mutual-YES matches created.",
		},
	)

	groupMealOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mealmatch",
			Subsystem: "group_meal",
			Name:      "operations_total",
			Help:      "Group-meal lifecycle operations by name and outcome.",
		},
		[]string{"op", "outcome"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		notifications,
		matchesCreated,
		groupMealOps,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func ObserveHTTP(method, path, status string, d time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func Notification(kind string, ok bool) {
	result := "sent"
	if !ok {
		result = "failed"
	}
	notifications.WithLabelValues(kind, result).Inc()
}

func MatchCreated() { matchesCreated.Inc() }

func GroupMealOp(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	groupMealOps.WithLabelValues(op, outcome).Inc()
}
