package channel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// stateTransitions tracks connection state transitions by new state.
	stateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_channel_state_transitions_total",
			Help: "Total push channel state transitions by new state",
		},
		[]string{"state"},
	)

	// reconnectAttempts tracks reconnect attempts.
	reconnectAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_channel_reconnect_attempts_total",
			Help: "Total push channel reconnect attempts",
		},
	)

	// messagesReceived tracks inbound messages by event name.
	messagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_channel_messages_total",
			Help: "Total push channel messages received by event name",
		},
		[]string{"event"},
	)

	// connectedGauge is 1 while the physical connection is established.
	connectedGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_channel_connected",
			Help: "Whether the push channel is currently connected (0 or 1)",
		},
	)
)
