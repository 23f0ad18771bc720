package audit

import (
	"context"
	"sync"
)

// DefaultMemoryCapacity bounds the in-memory sink used when no broker is
// configured.
const DefaultMemoryCapacity = 1024

// InMemoryStore keeps events in order of arrival. With a capacity it keeps
// only the newest events, overwriting the oldest; without one it grows
// without bound and is meant for tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
	next     int
	full     bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// NewBoundedInMemoryStore keeps at most capacity events. A non-positive
// capacity uses DefaultMemoryCapacity.
func NewBoundedInMemoryStore(capacity int) *InMemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &InMemoryStore{events: make([]Event, 0, capacity), capacity: capacity}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capacity == 0 || len(s.events) < s.capacity {
		s.events = append(s.events, event)
		return nil
	}
	s.events[s.next] = event
	s.next = (s.next + 1) % s.capacity
	s.full = true
	return nil
}

// ListByAction returns the retained events recorded for action, oldest first.
func (s *InMemoryStore) ListByAction(action AuditEvent) []Event {
	var out []Event
	for _, e := range s.All() {
		if e.Action == string(action) {
			out = append(out, e)
		}
	}
	return out
}

// All returns a copy of the retained events, oldest first.
func (s *InMemoryStore) All() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.full {
		return append([]Event{}, s.events...)
	}
	out := make([]Event, 0, len(s.events))
	out = append(out, s.events[s.next:]...)
	return append(out, s.events[:s.next]...)
}
