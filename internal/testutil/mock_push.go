package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// pushMessage mirrors the wire envelope emitted by the push-event server.
type pushMessage struct {
	Event  string `json:"event"`
	Tenant string `json:"tenant,omitempty"`
	Data   any    `json:"data"`
}

// MockPush is a websocket push-event server for testing. It accepts any
// number of connections, broadcasts named events to all of them, and can
// force-drop every connection to simulate an outage.
type MockPush struct {
	server *httptest.Server
	mu     sync.Mutex
	conns  []*websocket.Conn

	// Tracking
	AcceptCount    int
	LastAuthHeader string
}

// NewMockPush creates a new mock push-event server.
func NewMockPush() *MockPush {
	mock := &MockPush{}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}

		mock.mu.Lock()
		mock.AcceptCount++
		mock.LastAuthHeader = r.Header.Get("Authorization")
		mock.conns = append(mock.conns, conn)
		mock.mu.Unlock()

		// The server only writes; keep control frames processed.
		ctx := conn.CloseRead(context.Background())
		<-ctx.Done()
	}))

	return mock
}

// URL returns the websocket URL of the mock server.
func (m *MockPush) URL() string {
	return "ws" + strings.TrimPrefix(m.server.URL, "http")
}

// Close drops all connections and shuts down the server.
func (m *MockPush) Close() {
	m.DropConnections()
	m.server.Close()
}

// Accepts returns the number of connections accepted so far.
func (m *MockPush) Accepts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.AcceptCount
}

// Emit broadcasts one named event to every current connection.
func (m *MockPush) Emit(event, tenant string, data any) {
	m.mu.Lock()
	conns := make([]*websocket.Conn, len(m.conns))
	copy(conns, m.conns)
	m.mu.Unlock()

	msg := pushMessage{Event: event, Tenant: tenant, Data: data}
	for _, conn := range conns {
		_ = wsjson.Write(context.Background(), conn, msg)
	}
}

// DropConnections force-closes every current connection, simulating a
// push server outage.
func (m *MockPush) DropConnections() {
	m.mu.Lock()
	conns := m.conns
	m.conns = nil
	m.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close(websocket.StatusGoingAway, "server going away")
	}
}
