// Package metrics holds the chat domain counters exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_created_total",
			Help: "Total number of messages created",
		},
		[]string{"kind"}, // channel, conversation, thread
	)

	reactionsToggled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_reactions_toggled_total",
			Help: "Total number of reaction toggles",
		},
		[]string{"op"},
	)

	wsClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_ws_clients",
			Help: "Number of connected WebSocket clients",
		},
	)

	wsEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_ws_events_total",
			Help: "Total number of live-update events delivered to clients",
		},
		[]string{"type"},
	)

	wsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_ws_dropped_clients_total",
			Help: "Clients disconnected because their send buffer was full",
		},
	)
)

// MessageCreated counts a created message by container kind
func MessageCreated(kind string) {
	messagesCreated.WithLabelValues(kind).Inc()
}

// ReactionToggled counts an add or remove
func ReactionToggled(removed bool) {
	op := "add"
	if removed {
		op = "remove"
	}
	reactionsToggled.WithLabelValues(op).Inc()
}

// SetWSClients updates the connected client gauge
func SetWSClients(n int) {
	wsClients.Set(float64(n))
}

// WSEventDelivered counts one event written to one client buffer
func WSEventDelivered(eventType string) {
	wsEvents.WithLabelValues(eventType).Inc()
}

// WSClientDropped counts a slow consumer disconnect
func WSClientDropped() {
	wsDropped.Inc()
}
