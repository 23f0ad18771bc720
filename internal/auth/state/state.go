// Package state issues and verifies the CSRF tokens that bind an OAuth
// authorize request to its callback.
package state

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"podium/internal/auth/store/authcontext"
	dErrors "podium/pkg/domain-errors"
)

const (
	// tokenBytes gives 256 bits of entropy, 64 hex chars once encoded.
	tokenBytes = 32

	DefaultTTL = 10 * time.Minute
)

// ErrInvalidState is returned for every failed validation. Callers must not
// retry with the same token.
var ErrInvalidState = dErrors.New(dErrors.CodeInvalidState, "oauth state is missing, expired or does not match")

// Generate returns a fresh token from crypto/rand, hex encoded.
func Generate() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Matches compares in constant time. An empty token never matches.
func Matches(received, stored string) bool {
	if received == "" || stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(received), []byte(stored)) == 1
}

// ContextStore is the slice of the auth context store the service needs.
type ContextStore interface {
	Set(ctx context.Context, sessionID string, key authcontext.Key, value string, ttl time.Duration) error
	Consume(ctx context.Context, sessionID string, key authcontext.Key) (string, bool, error)
}

// Service issues state tokens into the auth context store and validates them
// exactly once.
type Service struct {
	store ContextStore
	ttl   time.Duration
}

type Option func(*Service)

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func NewService(store ContextStore, opts ...Option) *Service {
	s := &Service{store: store, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue generates a token and stores it for the browser session, replacing
// any token issued earlier.
func (s *Service) Issue(ctx context.Context, sessionID string) (string, error) {
	token, err := Generate()
	if err != nil {
		return "", err
	}
	if err := s.store.Set(ctx, sessionID, authcontext.KeyOAuthState, token, s.ttl); err != nil {
		return "", fmt.Errorf("persist state: %w", err)
	}
	return token, nil
}

// Validate consumes the stored token and compares it with received. The stored
// entry is deleted whatever the outcome, so a second validation always fails.
func (s *Service) Validate(ctx context.Context, sessionID, received string) error {
	stored, ok, err := s.store.Consume(ctx, sessionID, authcontext.KeyOAuthState)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidState, "oauth state could not be verified")
	}
	if !ok || !Matches(received, stored) {
		return ErrInvalidState
	}
	return nil
}
