// Package tenant tracks the active site selection and notifies observers
// when it changes.
package tenant

import (
	"sync"
)

// ChangeHandler is invoked after the active tenant changes.
type ChangeHandler func(previous, current string)

// Selector holds the current tenant (site/venue) id.
// Observers registered via OnChange are notified on every switch.
type Selector struct {
	mu       sync.Mutex
	current  string
	handlers []ChangeHandler
}

// NewSelector creates a selector with the given initial tenant id.
func NewSelector(initial string) *Selector {
	return &Selector{current: initial}
}

// Current returns the active tenant id.
func (s *Selector) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OnChange registers a handler invoked on every tenant switch.
// Handlers run synchronously in registration order.
func (s *Selector) OnChange(handler ChangeHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Switch changes the active tenant. A switch to the current id is a no-op
// and notifies nobody.
func (s *Selector) Switch(id string) {
	s.mu.Lock()
	if id == s.current {
		s.mu.Unlock()
		return
	}
	previous := s.current
	s.current = id
	handlers := make([]ChangeHandler, len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.Unlock()

	for _, handler := range handlers {
		handler(previous, id)
	}
}
