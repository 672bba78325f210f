package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Syed-afsha/crowd-dashboard-sdk/pkg/channel"
	"github.com/Syed-afsha/crowd-dashboard-sdk/pkg/credential"
)

// fakeConn is a controllable in-memory push connection.
type fakeConn struct {
	inbox     chan channel.Envelope
	dropped   chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbox:   make(chan channel.Envelope, 16),
		dropped: make(chan struct{}),
	}
}

func (f *fakeConn) ReadEnvelope(ctx context.Context) (channel.Envelope, error) {
	select {
	case envelope := <-f.inbox:
		return envelope, nil
	case <-f.dropped:
		return channel.Envelope{}, errors.New("connection dropped")
	case <-ctx.Done():
		return channel.Envelope{}, ctx.Err()
	}
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.dropped) })
	return nil
}

func (f *fakeConn) Emit(event, tenant, data string) {
	f.inbox <- channel.Envelope{Event: event, Tenant: tenant, Data: []byte(data)}
}

// fakeDialer hands out fakeConns.
type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
}

func (d *fakeDialer) dial(context.Context, string, string) (channel.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	conn := newFakeConn()
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[i]
}

// collector records payloads delivered to one subscriber.
type collector struct {
	mu  sync.Mutex
	got []string
}

func (c *collector) handler(envelope channel.Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, string(envelope.Data))
}

func (c *collector) wait(t *testing.T, n int) []string {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		c.mu.Lock()
		got := make([]string, len(c.got))
		copy(got, c.got)
		c.mu.Unlock()

		if len(got) >= n {
			return got
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d messages, got %d: %v", n, len(got), got)
		}
		time.Sleep(time.Millisecond)
	}
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.got)
}

func newTestSetup(t *testing.T) (*Multiplexer, *channel.Channel, *fakeDialer, chan channel.State) {
	t.Helper()

	dialer := &fakeDialer{}
	ch, err := channel.New(channel.Config{
		URL:                "wss://push.example.com/events",
		Credentials:        credential.Static{TokenValue: "tok"},
		Dialer:             dialer.dial,
		ReconnectBaseDelay: time.Millisecond,
		ReconnectMaxDelay:  5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("channel.New failed: %v", err)
	}

	mux := New(ch)

	// Registered after the multiplexer's own transition handler, so by
	// the time a state lands here the raw listeners for that state are
	// already wired.
	states := make(chan channel.State, 64)
	ch.OnStateChange(func(s channel.State) { states <- s })

	t.Cleanup(ch.Disconnect)

	return mux, ch, dialer, states
}

func connect(t *testing.T, ch *channel.Channel, states chan channel.State) {
	t.Helper()

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	waitForState(t, states, channel.StateConnected)
}

func waitForState(t *testing.T, states chan channel.State, want channel.State) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-states:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %q", want)
		}
	}
}

func TestSubscribe_SingleRawListener(t *testing.T) {
	mux, ch, _, states := newTestSetup(t)
	connect(t, ch, states)

	for i := 0; i < 3; i++ {
		mux.Subscribe("alert.raised", func(channel.Envelope) {})
	}

	if got := ch.ListenerCount(); got != 1 {
		t.Errorf("ListenerCount() = %d, want 1 regardless of subscriber count", got)
	}
	if got := mux.SubscriberCount("alert.raised"); got != 3 {
		t.Errorf("SubscriberCount() = %d, want 3", got)
	}
}

func TestFanOut_AllSubscribersInOrder(t *testing.T) {
	mux, ch, dialer, states := newTestSetup(t)
	connect(t, ch, states)

	collectors := []*collector{{}, {}, {}}
	for _, c := range collectors {
		mux.Subscribe("occupancy.update", c.handler)
	}

	dialer.conn(0).Emit("occupancy.update", "siteA", `{"count":1}`)
	dialer.conn(0).Emit("occupancy.update", "siteA", `{"count":2}`)

	for i, c := range collectors {
		got := c.wait(t, 2)
		if got[0] != `{"count":1}` || got[1] != `{"count":2}` {
			t.Errorf("subscriber %d observed %v, want messages in arrival order", i, got)
		}
	}
}

func TestSubscribe_BeforeConnect(t *testing.T) {
	mux, ch, dialer, states := newTestSetup(t)

	// Three subscriptions before any connection exists.
	collectors := []*collector{{}, {}, {}}
	for _, c := range collectors {
		mux.Subscribe("alert.raised", c.handler)
	}

	connect(t, ch, states)

	dialer.conn(0).Emit("alert.raised", "siteA", `{"zone":"north"}`)

	for i, c := range collectors {
		got := c.wait(t, 1)
		if len(got) != 1 || got[0] != `{"zone":"north"}` {
			t.Errorf("subscriber %d got %v, want exactly one delivery of the payload", i, got)
		}
	}
}

func TestReconnect_ResumesDelivery(t *testing.T) {
	mux, ch, dialer, states := newTestSetup(t)
	connect(t, ch, states)

	c := &collector{}
	mux.Subscribe("occupancy.update", c.handler)

	dialer.conn(0).Emit("occupancy.update", "siteA", `{"count":1}`)
	c.wait(t, 1)

	// Kill the connection and wait for the automatic reconnect.
	dialer.conn(0).Close()
	waitForState(t, states, channel.StateReconnecting)
	waitForState(t, states, channel.StateConnected)

	// Delivery resumes on the new physical connection without any
	// re-subscription.
	dialer.conn(1).Emit("occupancy.update", "siteA", `{"count":2}`)
	got := c.wait(t, 2)
	if got[1] != `{"count":2}` {
		t.Errorf("got %v, want delivery to resume after reconnect", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	mux, ch, dialer, states := newTestSetup(t)
	connect(t, ch, states)

	keep := &collector{}
	drop := &collector{}
	mux.Subscribe("alert.raised", keep.handler)
	sub := mux.Subscribe("alert.raised", drop.handler)

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	dialer.conn(0).Emit("alert.raised", "siteA", `{"zone":"east"}`)

	keep.wait(t, 1)
	if got := drop.count(); got != 0 {
		t.Errorf("unsubscribed handler received %d messages, want 0", got)
	}

	// The broadcaster and its raw listener survive even at zero
	// subscribers.
	mux.Subscribe("alert.raised", func(channel.Envelope) {})
	if got := ch.ListenerCount(); got != 1 {
		t.Errorf("ListenerCount() = %d, want 1", got)
	}
}

func TestSubscribe_NoReplayForLateSubscribers(t *testing.T) {
	mux, ch, dialer, states := newTestSetup(t)
	connect(t, ch, states)

	early := &collector{}
	mux.Subscribe("occupancy.update", early.handler)

	dialer.conn(0).Emit("occupancy.update", "siteA", `{"count":1}`)
	early.wait(t, 1)

	late := &collector{}
	mux.Subscribe("occupancy.update", late.handler)

	dialer.conn(0).Emit("occupancy.update", "siteA", `{"count":2}`)

	early.wait(t, 2)
	got := late.wait(t, 1)
	if len(got) != 1 || got[0] != `{"count":2}` {
		t.Errorf("late subscriber got %v, want only the message after attach", got)
	}
}

func TestMultiplexer_IndependentEvents(t *testing.T) {
	mux, ch, dialer, states := newTestSetup(t)
	connect(t, ch, states)

	occupancy := &collector{}
	alerts := &collector{}
	mux.Subscribe("occupancy.update", occupancy.handler)
	mux.Subscribe("alert.raised", alerts.handler)

	if got := ch.ListenerCount(); got != 2 {
		t.Errorf("ListenerCount() = %d, want 2 (one per event name)", got)
	}

	dialer.conn(0).Emit("alert.raised", "siteA", `{"zone":"west"}`)

	alerts.wait(t, 1)
	if got := occupancy.count(); got != 0 {
		t.Errorf("occupancy subscriber received %d alert messages, want 0", got)
	}
}

func TestClose_DetachesSubscribers(t *testing.T) {
	mux, ch, dialer, states := newTestSetup(t)
	connect(t, ch, states)

	c := &collector{}
	mux.Subscribe("alert.raised", c.handler)

	mux.Close()

	dialer.conn(0).Emit("alert.raised", "siteA", `{}`)

	time.Sleep(20 * time.Millisecond)
	if got := c.count(); got != 0 {
		t.Errorf("handler received %d messages after Close, want 0", got)
	}
}
