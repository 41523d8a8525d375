// Package observability holds the Prometheus metrics of the service.
//
// Metrics are registered on the default registry at package init and exposed
// through Handler on /metrics. All operations are safe for concurrent use.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "qaforum"

var (
	// VotesTotal counts vote transitions.
	// Labels: kind (question, answer), action (vote, unvote), outcome (ok, conflict, not_found, partial, error)
	VotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "community",
		Name:      "votes_total",
		Help:      "Vote and unvote attempts by target kind and outcome.",
	}, []string{"kind", "action", "outcome"})

	// PartialWritesTotal counts best-effort multi-writes that left some steps undone.
	// Labels: op, step
	PartialWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "community",
		Name:      "partial_writes_total",
		Help:      "Failed steps of multi-writes whose other steps were applied.",
	}, []string{"op", "step"})

	// CounterDriftRepairedTotal counts counters the reconciler rewrote.
	// Labels: counter
	CounterDriftRepairedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "community",
		Name:      "counter_drift_repaired_total",
		Help:      "Denormalized counters rewritten by reconciliation.",
	}, []string{"counter"})

	// NotificationsTotal counts notification deliveries.
	// Labels: channel (smtp, sms, log), status (sent, failed, dropped)
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "notify",
		Name:      "messages_total",
		Help:      "Notification deliveries by channel and status.",
	}, []string{"channel", "status"})

	// HTTPRequestsTotal counts served requests.
	// Labels: method, route, status
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration measures handler latency.
	// Labels: method, route
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP handler latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
