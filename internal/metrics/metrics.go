// Package metrics registers the application's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Hub metrics
var (
	// HubActiveBoards tracks the number of board groups with at least one
	// connected session.
	HubActiveBoards = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_active_boards",
			Help: "Number of boards with at least one connected session",
		},
	)

	// HubConnectedClients tracks connected WebSocket sessions across all boards.
	HubConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_clients_total",
			Help: "Total connected WebSocket sessions across all boards",
		},
	)

	// HubEventsPublished counts events delivered to board groups, by kind.
	HubEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_events_published_total",
			Help: "Events published to board groups by event kind",
		},
		[]string{"kind"},
	)

	// HubSlowClientsEvicted counts sessions dropped because their delivery
	// queue was full.
	HubSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_clients_evicted_total",
			Help: "Sessions evicted because their send queue was full",
		},
	)

	// HubMalformedMessages counts client payloads that failed to parse.
	HubMalformedMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_malformed_messages_total",
			Help: "Client messages rejected as malformed JSON",
		},
	)
)

// Activity pipeline metrics
var (
	// ActivityRecordsTotal counts activity log writes by outcome:
	// provisional, attributed, discarded, deletion.
	ActivityRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_records_total",
			Help: "Activity log operations by outcome",
		},
		[]string{"outcome"},
	)

	// ActivityAttributionMisses counts handler attributions that found no
	// provisional record to patch.
	ActivityAttributionMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activity_attribution_misses_total",
			Help: "Attribution attempts that found no provisional record",
		},
	)
)

// WebSocket writer metrics
var (
	// WebSocketPingFailures counts keepalive pings that failed to send.
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "WebSocket keepalive pings that failed",
		},
	)
)
