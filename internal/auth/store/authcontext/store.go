package authcontext

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	dErrors "podium/pkg/domain-errors"
)

// DefaultTTL applies when Set is called without a positive TTL.
const DefaultTTL = 30 * time.Minute

var (
	ErrInvalidKey       = dErrors.New(dErrors.CodeInvalidInput, "unknown auth context key")
	ErrMissingSessionID = dErrors.New(dErrors.CodeInvalidInput, "browser session id is required")
)

// Storage is the capability a backend must offer. Values are opaque encoded
// entries; expiry semantics live in Store. expiresAt lets backends expire
// entries natively and lets DeleteExpired find them.
//
// Error Contract:
// - Get and Take report absence with ok=false and a nil error
// - Take must read and delete atomically; it is the single-use guarantee for OAuth state
// - Infrastructure failures are returned wrapped
type Storage interface {
	Get(ctx context.Context, sessionID string, key Key) (raw string, ok bool, err error)
	Set(ctx context.Context, sessionID string, key Key, raw string, expiresAt time.Time) error
	Remove(ctx context.Context, sessionID string, key Key) error
	// RemoveIf deletes key only while it still holds raw, so a value written
	// by another request after the read survives.
	RemoveIf(ctx context.Context, sessionID string, key Key, raw string) error
	Clear(ctx context.Context, sessionID string) error
	Take(ctx context.Context, sessionID string, key Key) (raw string, ok bool, err error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// Observer receives store outcomes for metrics.
type Observer interface {
	ObserveContextRead(key string, result string)
	ObserveContextSweep(deleted int)
}

// entry is the encoded form of one stored value. expiry is unix milliseconds.
type entry struct {
	Value  string `json:"value"`
	Expiry int64  `json:"expiry"`
}

// Store is the expiry-aware auth context store, namespaced by browser session.
type Store struct {
	storage    Storage
	defaultTTL time.Duration
	now        func() time.Time
	logger     *slog.Logger
	observer   Observer
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithDefaultTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.defaultTTL = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Store) {
		s.observer = o
	}
}

func New(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage:    storage,
		defaultTTL: DefaultTTL,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set stores value under key with expiry now+ttl. A non-positive ttl uses the default.
func (s *Store) Set(ctx context.Context, sessionID string, key Key, value string, ttl time.Duration) error {
	if err := checkArgs(sessionID, key); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	expiresAt := s.now().Add(ttl)
	raw, err := json.Marshal(entry{Value: value, Expiry: expiresAt.UnixMilli()})
	if err != nil {
		return fmt.Errorf("encode context entry: %w", err)
	}
	if err := s.storage.Set(ctx, sessionID, key, string(raw), expiresAt); err != nil {
		return fmt.Errorf("store context entry %s: %w", key, err)
	}
	return nil
}

// Get returns the live value for key. Expired or undecodable entries are
// removed and reported as absent.
func (s *Store) Get(ctx context.Context, sessionID string, key Key) (string, bool, error) {
	value, _, ok, err := s.read(ctx, sessionID, key)
	return value, ok, err
}

// read returns the live value together with the raw entry it came from.
func (s *Store) read(ctx context.Context, sessionID string, key Key) (value, raw string, ok bool, err error) {
	if err := checkArgs(sessionID, key); err != nil {
		return "", "", false, err
	}
	raw, ok, err = s.storage.Get(ctx, sessionID, key)
	if err != nil {
		return "", "", false, fmt.Errorf("read context entry %s: %w", key, err)
	}
	if !ok {
		s.observe(key, "miss")
		return "", "", false, nil
	}
	value, live := s.decode(key, raw)
	if !live {
		s.removeStale(ctx, sessionID, key, raw)
		return "", "", false, nil
	}
	s.observe(key, "hit")
	return value, raw, true, nil
}

func (s *Store) removeStale(ctx context.Context, sessionID string, key Key, raw string) {
	if err := s.storage.RemoveIf(ctx, sessionID, key, raw); err != nil {
		s.logger.WarnContext(ctx, "failed to remove stale context entry", "key", string(key), "error", err)
	}
}

// Consume atomically reads and deletes key. The entry is gone afterwards
// whether or not it was still live.
func (s *Store) Consume(ctx context.Context, sessionID string, key Key) (string, bool, error) {
	if err := checkArgs(sessionID, key); err != nil {
		return "", false, err
	}
	raw, ok, err := s.storage.Take(ctx, sessionID, key)
	if err != nil {
		return "", false, fmt.Errorf("consume context entry %s: %w", key, err)
	}
	if !ok {
		s.observe(key, "miss")
		return "", false, nil
	}
	value, live := s.decode(key, raw)
	if !live {
		return "", false, nil
	}
	s.observe(key, "hit")
	return value, true, nil
}

// SetJSON encodes v as the value for key.
func (s *Store) SetJSON(ctx context.Context, sessionID string, key Key, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, sessionID, key, string(data), ttl)
}

// GetJSON decodes the live value for key into dst. A value that does not
// decode is removed and reported as absent.
func (s *Store) GetJSON(ctx context.Context, sessionID string, key Key, dst any) (bool, error) {
	value, raw, ok, err := s.read(ctx, sessionID, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(value), dst); err != nil {
		s.logger.WarnContext(ctx, "discarding undecodable context value", "key", string(key))
		s.observe(key, "corrupt")
		s.removeStale(ctx, sessionID, key, raw)
		return false, nil
	}
	return true, nil
}

func (s *Store) Remove(ctx context.Context, sessionID string, key Key) error {
	if err := checkArgs(sessionID, key); err != nil {
		return err
	}
	if err := s.storage.Remove(ctx, sessionID, key); err != nil {
		return fmt.Errorf("remove context entry %s: %w", key, err)
	}
	return nil
}

// Clear drops every entry of the browser session.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrMissingSessionID
	}
	if err := s.storage.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("clear auth context: %w", err)
	}
	return nil
}

// Sweep purges every expired entry across sessions.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	deleted, err := s.storage.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweep auth context: %w", err)
	}
	if s.observer != nil {
		s.observer.ObserveContextSweep(deleted)
	}
	return deleted, nil
}

// decode returns the value and whether it is usable. Corrupt and expired
// entries are both unusable.
func (s *Store) decode(key Key, raw string) (string, bool) {
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		s.observe(key, "corrupt")
		return "", false
	}
	if s.now().UnixMilli() >= e.Expiry {
		s.observe(key, "expired")
		return "", false
	}
	return e.Value, true
}

func (s *Store) observe(key Key, result string) {
	if s.observer != nil {
		s.observer.ObserveContextRead(string(key), result)
	}
}

func checkArgs(sessionID string, key Key) error {
	if sessionID == "" {
		return ErrMissingSessionID
	}
	if !key.IsValid() {
		return ErrInvalidKey
	}
	return nil
}
