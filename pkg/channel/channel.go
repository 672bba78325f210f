package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Syed-afsha/crowd-dashboard-sdk/pkg/credential"
	"github.com/Syed-afsha/crowd-dashboard-sdk/pkg/logging"
)

// Conn is one physical connection to the push-event server.
type Conn interface {
	// ReadEnvelope blocks until the next named message arrives.
	ReadEnvelope(ctx context.Context) (Envelope, error)

	// Close tears the connection down.
	Close() error
}

// Dialer establishes a physical connection. The default dialer speaks
// websocket; tests inject fakes.
type Dialer func(ctx context.Context, url, token string) (Conn, error)

// Config holds the channel configuration.
type Config struct {
	// URL of the push-event server.
	URL string

	// Credentials supplies the token attached to the connection
	// (required; Connect refuses to run without one).
	Credentials credential.Provider

	// Dialer establishes connections. Defaults to WebsocketDialer().
	Dialer Dialer

	// Reconnect backoff: exponential growth from base to max with a
	// randomized +/- jitter fraction. Zero fields take the package
	// defaults.
	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration
	ReconnectJitter    float64
}

// Channel maintains at most one physical connection to the push-event
// server at any time. Losing the connection replaces the physical
// connection object and all raw listeners registered on it; state
// transition handlers survive and drive re-registration.
type Channel struct {
	mu            sync.Mutex
	cfg           Config
	state         State
	conn          Conn
	listeners     map[string]Listener
	stateHandlers []StateHandler
	attempt       int
	lastReason    string
	cancel        context.CancelFunc
	done          chan struct{}
	logger        zerolog.Logger
}

// New creates a channel. No connection is attempted until Connect.
func New(cfg Config) (*Channel, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("push server URL is required")
	}
	if cfg.Dialer == nil {
		cfg.Dialer = WebsocketDialer()
	}
	if cfg.ReconnectBaseDelay <= 0 {
		cfg.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if cfg.ReconnectMaxDelay <= 0 {
		cfg.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if cfg.ReconnectJitter < 0 || cfg.ReconnectJitter >= 1 {
		cfg.ReconnectJitter = DefaultReconnectJitter
	}

	return &Channel{
		cfg:       cfg,
		state:     StateDisconnected,
		listeners: make(map[string]Listener),
		logger:    logging.NewLogger("channel"),
	}, nil
}

// Connect starts the connection lifecycle. It is a no-op if the channel
// is already connecting, connected, or reconnecting. It fails fast,
// without any network attempt, when no credential is available or the
// credential is already known-expired.
//
// The connection lives until ctx is cancelled or Disconnect is called;
// until then, lost connections are re-established with backoff.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}

	creds := c.cfg.Credentials
	if creds == nil || creds.Token() == "" {
		c.mu.Unlock()
		return ErrNoCredential
	}
	if creds.IsExpired() {
		c.mu.Unlock()
		return ErrCredentialExpired
	}

	// A previous run loop that stopped itself (credential expiry) leaves
	// its cancel behind; release it before starting a new lifecycle.
	if c.cancel != nil {
		c.cancel()
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.state = StateConnecting
	handlers := c.snapshotHandlersLocked()
	c.mu.Unlock()

	c.notifyTransition(StateConnecting, handlers)
	go c.run(runCtx, done)

	return nil
}

// run is the connection lifecycle loop. Exactly one run goroutine exists
// per Connect; it exits on context cancellation or credential expiry.
func (c *Channel) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		if c.cfg.Credentials.IsExpired() {
			c.recordReason("credential expired")
			c.logger.Error().Msg("Credential expired, stopping reconnect attempts")
			c.setState(StateDisconnected)
			return
		}

		conn, err := c.cfg.Dialer(ctx, c.cfg.URL, c.cfg.Credentials.Token())
		if err == nil {
			c.mu.Lock()
			c.conn = conn
			c.attempt = 0
			c.mu.Unlock()
			c.setState(StateConnected)
			c.logger.Info().Str("url", c.cfg.URL).Msg("Channel connected")

			readErr := c.readLoop(ctx, conn)
			c.teardownConn()

			if ctx.Err() != nil {
				c.setState(StateDisconnected)
				return
			}
			c.recordReason(readErr.Error())
			c.logger.Warn().Err(readErr).Msg("Channel connection lost")
		} else {
			if ctx.Err() != nil {
				c.setState(StateDisconnected)
				return
			}
			c.recordReason(err.Error())
		}

		c.mu.Lock()
		c.attempt++
		attempt := c.attempt
		c.mu.Unlock()

		if err != nil {
			connectErr := &ConnectError{Attempt: attempt, Err: err}
			c.logger.Warn().Err(connectErr).Msg("Channel connect failed")
		}

		reconnectAttempts.Inc()
		c.setState(StateReconnecting)

		delay := backoffDelay(attempt, c.cfg.ReconnectBaseDelay, c.cfg.ReconnectMaxDelay, c.cfg.ReconnectJitter)
		c.logger.Debug().
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("Waiting before reconnect attempt")

		select {
		case <-ctx.Done():
			c.setState(StateDisconnected)
			return
		case <-time.After(delay):
		}
	}
}

// readLoop dispatches inbound messages to raw listeners until the
// connection fails. Dispatch is sequential; listeners for the same event
// observe messages in arrival order.
func (c *Channel) readLoop(ctx context.Context, conn Conn) error {
	for {
		envelope, err := conn.ReadEnvelope(ctx)
		if err != nil {
			return err
		}

		messagesReceived.WithLabelValues(envelope.Event).Inc()

		c.mu.Lock()
		listener := c.listeners[envelope.Event]
		c.mu.Unlock()

		if listener != nil {
			listener(envelope)
		}
	}
}

// Disconnect tears down the physical connection, clears all raw
// listeners, and stops reconnect attempts. Idempotent.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.cancel = nil
	c.done = nil
	conn := c.conn
	c.conn = nil
	c.listeners = make(map[string]Listener)
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if cancel != nil {
		cancel()
		<-done
	}
	c.setState(StateDisconnected)
}

// On registers the raw listener for an event name on the current physical
// connection, replacing any previous listener for that name. At most one
// raw listener exists per event name. Listeners are cleared on teardown.
func (c *Channel) On(event string, listener Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners[event] = listener
}

// OnStateChange registers a handler observing every state transition.
// Handlers persist for the channel's lifetime and survive reconnects.
func (c *Channel) OnStateChange(handler StateHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateHandlers = append(c.stateHandlers, handler)
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsHealthy reports whether the channel is connected AND its credential
// is present and not expired. A connected channel whose credential has
// expired is unhealthy even though the transport has not noticed yet.
func (c *Channel) IsHealthy() bool {
	c.mu.Lock()
	state := c.state
	creds := c.cfg.Credentials
	c.mu.Unlock()

	if state != StateConnected {
		return false
	}
	return creds != nil && creds.Token() != "" && !creds.IsExpired()
}

// Attempt returns the current reconnect attempt counter. Zero while
// connected.
func (c *Channel) Attempt() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt
}

// LastDisconnectReason returns the reason for the most recent connection
// loss, or "" if none occurred yet.
func (c *Channel) LastDisconnectReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastReason
}

// ListenerCount returns the number of raw listeners registered on the
// current physical connection.
func (c *Channel) ListenerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

// teardownConn closes the current connection object and removes every
// raw listener registered on it.
func (c *Channel) teardownConn() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.listeners = make(map[string]Listener)
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

// setState transitions to s and notifies state handlers. No-op when the
// state is unchanged.
func (c *Channel) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	handlers := c.snapshotHandlersLocked()
	c.mu.Unlock()

	c.notifyTransition(s, handlers)
}

func (c *Channel) snapshotHandlersLocked() []StateHandler {
	handlers := make([]StateHandler, len(c.stateHandlers))
	copy(handlers, c.stateHandlers)
	return handlers
}

func (c *Channel) notifyTransition(s State, handlers []StateHandler) {
	stateTransitions.WithLabelValues(string(s)).Inc()
	if s == StateConnected {
		connectedGauge.Set(1)
	} else {
		connectedGauge.Set(0)
	}

	for _, handler := range handlers {
		handler(s)
	}
}

func (c *Channel) recordReason(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastReason = reason
}
