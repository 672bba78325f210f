package events

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Syed-afsha/crowd-dashboard-sdk/pkg/channel"
	"github.com/Syed-afsha/crowd-dashboard-sdk/pkg/logging"
)

// Handler receives every message broadcast for a subscribed event name.
// The envelope carries the tenant id; handlers filter on it themselves.
type Handler func(envelope channel.Envelope)

// Multiplexer fans named events out from the single push channel to any
// number of independent subscribers. For each event name at most one raw
// listener is ever registered on the channel, no matter how many
// subscribers attach.
type Multiplexer struct {
	mu           sync.Mutex
	channel      *channel.Channel
	broadcasters map[string]*broadcaster
	logger       zerolog.Logger
}

// New creates a multiplexer on top of ch. Raw listener registration is
// driven by ch's state transitions: listeners are (re-)registered on
// every Connected transition, since a reconnect replaces the physical
// connection and all listeners on it.
func New(ch *channel.Channel) *Multiplexer {
	m := &Multiplexer{
		channel:      ch,
		broadcasters: make(map[string]*broadcaster),
		logger:       logging.NewLogger("events"),
	}

	ch.OnStateChange(func(state channel.State) {
		if state != channel.StateConnected {
			return
		}
		m.registerAll()
	})

	return m
}

// Subscribe attaches a handler to the named event and returns its handle.
// The first subscription for an event name creates the broadcaster; later
// subscriptions attach to it and trigger no new channel registration. If
// the channel is not connected yet, the subscriber is attached immediately
// and the raw listener is registered once the channel reaches Connected.
//
// Fan-out does not queue: subscribers attached later do not receive past
// messages.
func (m *Multiplexer) Subscribe(event string, handler Handler) *Subscription {
	m.mu.Lock()
	b, ok := m.broadcasters[event]
	if !ok {
		b = &broadcaster{
			event:       event,
			subscribers: make(map[uuid.UUID]Handler),
			logger:      m.logger,
		}
		m.broadcasters[event] = b
		if m.channel.State() == channel.StateConnected {
			m.channel.On(event, b.dispatch)
		}
	}
	m.mu.Unlock()

	id := b.attach(handler)
	m.logger.Debug().
		Str("event", event).
		Int("subscribers", b.len()).
		Msg("Subscriber attached")

	return &Subscription{broadcaster: b, id: id}
}

// SubscriberCount returns the number of subscribers attached to the named
// event's broadcaster.
func (m *Multiplexer) SubscriberCount(event string) int {
	m.mu.Lock()
	b, ok := m.broadcasters[event]
	m.mu.Unlock()
	if !ok {
		return 0
	}
	return b.len()
}

// Close detaches every subscriber from every broadcaster. Intended for
// process shutdown; individual subscribers never need to call it.
func (m *Multiplexer) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.broadcasters {
		b.clear()
	}
	m.broadcasters = make(map[string]*broadcaster)
}

// registerAll wires every known broadcaster's raw listener onto the
// current physical connection. Runs on each Connected transition.
func (m *Multiplexer) registerAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for event, b := range m.broadcasters {
		m.channel.On(event, b.dispatch)
	}
	if len(m.broadcasters) > 0 {
		m.logger.Debug().
			Int("events", len(m.broadcasters)).
			Msg("Re-registered raw listeners after connect")
	}
}

// broadcaster holds the subscriber set for one event name. It is created
// on the first subscription and lives for the multiplexer's lifetime,
// even if its subscriber count drops to zero.
type broadcaster struct {
	mu          sync.Mutex
	event       string
	order       []uuid.UUID
	subscribers map[uuid.UUID]Handler
	logger      zerolog.Logger
}

// dispatch is the raw listener registered on the channel: it forwards one
// inbound message to every currently attached subscriber, in attach
// order. All subscribers observe the same message sequence.
func (b *broadcaster) dispatch(envelope channel.Envelope) {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.subscribers[id])
	}
	b.mu.Unlock()

	eventsDispatched.WithLabelValues(b.event).Inc()
	for _, handler := range handlers {
		handler(envelope)
	}
}

func (b *broadcaster) attach(handler Handler) uuid.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()

	var id uuid.UUID
	for {
		id = uuid.New()
		if _, taken := b.subscribers[id]; !taken {
			break
		}
	}
	b.subscribers[id] = handler
	b.order = append(b.order, id)
	subscriberGauge.WithLabelValues(b.event).Set(float64(len(b.subscribers)))
	return id
}

func (b *broadcaster) detach(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[id]; !ok {
		return
	}
	delete(b.subscribers, id)
	for i, existing := range b.order {
		if existing == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	subscriberGauge.WithLabelValues(b.event).Set(float64(len(b.subscribers)))
}

func (b *broadcaster) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = make(map[uuid.UUID]Handler)
	b.order = nil
	subscriberGauge.WithLabelValues(b.event).Set(0)
}

func (b *broadcaster) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Subscription is the handle returned by Subscribe. Its only operation
// detaches the one subscriber it represents; the broadcaster and its raw
// listener stay alive.
type Subscription struct {
	broadcaster *broadcaster
	id          uuid.UUID
	once        sync.Once
}

// Unsubscribe detaches this subscriber. Idempotent.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.broadcaster.detach(s.id)
	})
}
