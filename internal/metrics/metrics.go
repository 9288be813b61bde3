// Package metrics defines the Prometheus collectors the relay exports at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Connection metrics
	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_connected_clients",
			Help: "Open WebSocket connections",
		},
	)

	JoinedIdentities = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_joined_identities",
			Help: "Connections that announced an identity",
		},
	)

	// Routing metrics
	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_received_total",
			Help: "Inbound events by name",
		},
		[]string{"event"},
	)

	EventsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_delivered_total",
			Help: "Outbound events by name and delivery kind",
		},
		[]string{"event", "kind"}, // "broadcast", "direct", "echo"
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_dropped_total",
			Help: "Inbound events or deliveries that were dropped",
		},
		[]string{"reason"},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_rate_limit_hits_total",
			Help: "Inbound frames discarded by the per-connection rate limiter",
		},
	)

	// History metrics
	HistorySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_history_messages",
			Help: "Messages retained in the global history",
		},
	)
)
