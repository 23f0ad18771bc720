package adapters

import (
	"context"
	"log/slog"
	"time"

	"podium/internal/auth/models"
	"podium/internal/auth/service"
	dErrors "podium/pkg/domain-errors"
	"podium/pkg/platform/circuit"
)

// ResilientCredentialStore wraps a credential store with circuit breaker
// protection. Only infrastructure failures count against the breaker; a
// rejected password is a healthy answer. While the circuit is open calls fail
// fast with a network error, except GetUser, which answers from recently
// seen users when it can.
type ResilientCredentialStore struct {
	delegate service.CredentialStore
	cb       *circuit.Breaker
	cache    *userCache
	logger   *slog.Logger

	breakerOpts []circuit.Option
}

// ErrUnavailable is returned without calling the backend while the circuit is open.
var ErrUnavailable = dErrors.New(dErrors.CodeNetwork, "credential store temporarily unavailable")

type ResilientOption func(*ResilientCredentialStore)

// WithBreakerOptions tunes the circuit breaker.
func WithBreakerOptions(opts ...circuit.Option) ResilientOption {
	return func(r *ResilientCredentialStore) {
		r.breakerOpts = append(r.breakerOpts, opts...)
	}
}

// WithUserCacheTTL sets how long resolved users are served while the circuit is open.
func WithUserCacheTTL(ttl time.Duration) ResilientOption {
	return func(r *ResilientCredentialStore) {
		r.cache = newUserCache(ttl)
	}
}

func NewResilientCredentialStore(delegate service.CredentialStore, logger *slog.Logger, opts ...ResilientOption) *ResilientCredentialStore {
	r := &ResilientCredentialStore{
		delegate: delegate,
		cache:    newUserCache(5 * time.Minute),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.cb = circuit.New("credential_store", r.breakerOpts...)
	return r
}

// CircuitOpen reports whether the breaker has tripped.
func (r *ResilientCredentialStore) CircuitOpen() bool {
	return r.cb.IsOpen()
}

func (r *ResilientCredentialStore) SignInWithPassword(ctx context.Context, email, password string) (*models.AuthSession, error) {
	if !r.cb.Allow() {
		return nil, ErrUnavailable
	}
	s, err := r.delegate.SignInWithPassword(ctx, email, password)
	r.record(ctx, err)
	return s, err
}

func (r *ResilientCredentialStore) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*models.AuthSession, error) {
	if !r.cb.Allow() {
		return nil, ErrUnavailable
	}
	s, err := r.delegate.SignUp(ctx, email, password, metadata)
	r.record(ctx, err)
	return s, err
}

func (r *ResilientCredentialStore) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	if !r.cb.Allow() {
		return ErrUnavailable
	}
	err := r.delegate.ResetPasswordForEmail(ctx, email, redirectTo)
	r.record(ctx, err)
	return err
}

func (r *ResilientCredentialStore) VerifyRecoveryToken(ctx context.Context, token string) (*models.AuthSession, error) {
	if !r.cb.Allow() {
		return nil, ErrUnavailable
	}
	s, err := r.delegate.VerifyRecoveryToken(ctx, token)
	r.record(ctx, err)
	return s, err
}

func (r *ResilientCredentialStore) UpdateUser(ctx context.Context, accessToken string, attrs models.UserAttributes) error {
	if !r.cb.Allow() {
		return ErrUnavailable
	}
	err := r.delegate.UpdateUser(ctx, accessToken, attrs)
	r.record(ctx, err)
	return err
}

// GetUser falls back to a recently resolved user while the circuit is open
// or when the failure that opened it happens on this call.
func (r *ResilientCredentialStore) GetUser(ctx context.Context, accessToken string) (*models.User, error) {
	if !r.cb.Allow() {
		if user, ok := r.cache.Get(accessToken); ok {
			r.logger.WarnContext(ctx, "circuit open, using cached user", "circuit", r.cb.Name())
			return user, nil
		}
		return nil, ErrUnavailable
	}

	user, err := r.delegate.GetUser(ctx, accessToken)
	if err != nil {
		if r.record(ctx, err) {
			if cached, ok := r.cache.Get(accessToken); ok {
				r.logger.WarnContext(ctx, "using cached user after failure", "circuit", r.cb.Name())
				return cached, nil
			}
		}
		return nil, err
	}
	r.record(ctx, nil)
	r.cache.Set(accessToken, user)
	return user, nil
}

func (r *ResilientCredentialStore) SignOut(ctx context.Context, accessToken string) error {
	r.cache.Delete(accessToken)
	if !r.cb.Allow() {
		return ErrUnavailable
	}
	err := r.delegate.SignOut(ctx, accessToken)
	r.record(ctx, err)
	return err
}

func (r *ResilientCredentialStore) ExchangeCodeForSession(ctx context.Context, provider, code, redirectURI string) (*models.AuthSession, error) {
	if !r.cb.Allow() {
		return nil, ErrUnavailable
	}
	s, err := r.delegate.ExchangeCodeForSession(ctx, provider, code, redirectURI)
	r.record(ctx, err)
	return s, err
}

// record feeds the outcome to the breaker and reports whether the circuit is
// open afterwards.
func (r *ResilientCredentialStore) record(ctx context.Context, err error) bool {
	if err == nil || !dErrors.Retryable(err) {
		if r.cb.Success() == circuit.Closed {
			r.logger.InfoContext(ctx, "circuit breaker closed", "circuit", r.cb.Name())
		}
		return false
	}
	if r.cb.Failure() == circuit.Opened {
		r.logger.ErrorContext(ctx, "circuit breaker opened", "circuit", r.cb.Name(), "error", err)
	}
	return r.cb.IsOpen()
}

var _ service.CredentialStore = (*ResilientCredentialStore)(nil)
