// Package metrics exposes Prometheus metrics for the notification client.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "careercoach"

var (
	pushEventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "push_events_total",
			Help:      "Push events received, by stream",
		},
		[]string{"stream"},
	)

	pushEventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "push_events_dropped_total",
			Help:      "Push events dropped (malformed payload or full queue), by reason",
		},
		[]string{"reason"},
	)

	pushReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "push_reconnect_attempts_total",
			Help:      "Push channel reconnection attempts",
		},
	)

	pushConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "push_connected",
			Help:      "Whether the push channel is currently connected (0 or 1)",
		},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "api_request_duration_seconds",
			Help:      "REST sync request duration, by operation",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	apiRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "api_request_errors_total",
			Help:      "REST sync request failures, by operation and error kind",
		},
		[]string{"operation", "kind"},
	)
)

// RecordPushEvent records one inbound push event.
func RecordPushEvent(stream string) {
	pushEventsReceived.WithLabelValues(stream).Inc()
}

// RecordPushDropped records a dropped push event.
func RecordPushDropped(reason string) {
	pushEventsDropped.WithLabelValues(reason).Inc()
}

// RecordReconnectAttempt records one reconnection attempt.
func RecordReconnectAttempt() {
	pushReconnects.Inc()
}

// SetConnected records the push channel connection status.
func SetConnected(connected bool) {
	if connected {
		pushConnected.Set(1)
	} else {
		pushConnected.Set(0)
	}
}

// RecordAPIRequest records a completed REST sync request.
func RecordAPIRequest(operation string, duration time.Duration) {
	apiRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordAPIError records a failed REST sync request.
func RecordAPIError(operation, kind string) {
	apiRequestErrors.WithLabelValues(operation, kind).Inc()
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
