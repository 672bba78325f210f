// Package channel owns the single physical connection to the push-event
// server: connect/reconnect lifecycle, backoff, credential attachment, and
// health inspection. It interprets no business data; named messages are
// handed to raw listeners as-is.
package channel

import (
	"encoding/json"
)

// State represents the connection lifecycle state.
type State string

const (
	// StateDisconnected means no connection exists and none is being
	// attempted.
	StateDisconnected State = "disconnected"

	// StateConnecting means the first connection attempt is in progress.
	StateConnecting State = "connecting"

	// StateConnected means the physical connection is established.
	StateConnected State = "connected"

	// StateReconnecting means the connection was lost and retry attempts
	// are running with backoff.
	StateReconnecting State = "reconnecting"
)

// Envelope is one named message from the push-event server.
type Envelope struct {
	// Event is the named channel the message belongs to.
	Event string `json:"event"`

	// Tenant is the site the message concerns. The channel does not
	// filter on it; consumers do.
	Tenant string `json:"tenant,omitempty"`

	// Data is the message payload, opaque to the channel.
	Data json.RawMessage `json:"data"`
}

// Listener receives every inbound message for one event name.
// Listeners are scoped to the current physical connection and are cleared
// on every teardown; re-registration after reconnect is the caller's job
// (the multiplexer does this on the Connected transition).
type Listener func(Envelope)

// StateHandler observes connection state transitions. Handlers persist
// across reconnects.
type StateHandler func(State)
