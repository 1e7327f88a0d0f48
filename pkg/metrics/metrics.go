// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// DispatchesTotal tracks dispatch pipeline outcomes.
	DispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatches_total",
			Help: "Total dispatch pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	// RetriesTotal tracks user-initiated retries.
	RetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_retries_total",
			Help: "Total user-initiated dispatch retries",
		},
	)

	// ResponderDuration tracks remote responder call duration.
	ResponderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "responder_duration_seconds",
			Help:    "Remote responder call duration",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider", "outcome"},
	)

	// MessagesTotal tracks messages appended to the store.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages appended to the store",
		},
		[]string{"author"},
	)

	// ConversationsTotal tracks conversations created.
	ConversationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversations_total",
			Help: "Total conversations created",
		},
	)

	// SubRepliesTotal tracks sub-thread replies.
	SubRepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sub_replies_total",
			Help: "Total sub-thread replies by author",
		},
		[]string{"author"},
	)

	// WorkspacesActive tracks live workspace sessions.
	WorkspacesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "workspaces_active",
			Help: "Number of active workspace sessions",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordDispatch records a dispatch pipeline run.
func RecordDispatch(provider, outcome string, duration float64) {
	DispatchesTotal.WithLabelValues(outcome).Inc()
	ResponderDuration.WithLabelValues(provider, outcome).Observe(duration)
}
