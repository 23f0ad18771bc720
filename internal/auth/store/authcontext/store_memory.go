package authcontext

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	raw       string
	expiresAt time.Time
}

// InMemoryStorage keeps auth context entries in process memory.
// Suitable for tests and single-instance deployments.
type InMemoryStorage struct {
	mu       sync.RWMutex
	sessions map[string]map[Key]memoryEntry
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{sessions: make(map[string]map[Key]memoryEntry)}
}

func (s *InMemoryStorage) Get(_ context.Context, sessionID string, key Key) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[sessionID][key]
	if !ok {
		return "", false, nil
	}
	return e.raw, true, nil
}

func (s *InMemoryStorage) Set(_ context.Context, sessionID string, key Key, raw string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, ok := s.sessions[sessionID]
	if !ok {
		entries = make(map[Key]memoryEntry)
		s.sessions[sessionID] = entries
	}
	entries[key] = memoryEntry{raw: raw, expiresAt: expiresAt}
	return nil
}

func (s *InMemoryStorage) Remove(_ context.Context, sessionID string, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(sessionID, key)
	return nil
}

func (s *InMemoryStorage) RemoveIf(_ context.Context, sessionID string, key Key, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[sessionID][key]; ok && e.raw == raw {
		s.removeLocked(sessionID, key)
	}
	return nil
}

func (s *InMemoryStorage) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *InMemoryStorage) Take(_ context.Context, sessionID string, key Key) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID][key]
	if !ok {
		return "", false, nil
	}
	s.removeLocked(sessionID, key)
	return e.raw, true, nil
}

// DeleteExpired removes all entries whose expiry is at or before now.
func (s *InMemoryStorage) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for sid, entries := range s.sessions {
		for key, e := range entries {
			if !e.expiresAt.After(now) {
				delete(entries, key)
				deleted++
			}
		}
		if len(entries) == 0 {
			delete(s.sessions, sid)
		}
	}
	return deleted, nil
}

func (s *InMemoryStorage) removeLocked(sessionID string, key Key) {
	entries, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	delete(entries, key)
	if len(entries) == 0 {
		delete(s.sessions, sessionID)
	}
}
