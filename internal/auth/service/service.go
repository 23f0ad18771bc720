package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"podium/internal/audit"
	"podium/internal/auth/metrics"
	"podium/internal/auth/models"
	"podium/internal/auth/store/authcontext"
	"podium/internal/platform/tracer"
)

// CredentialStore is the external identity backend. This service decides
// when to call it and how to read its answers; it never stores credentials.
//
// Error Contract: failures should carry a domain error code where the backend
// can tell (expired_token, invalid_token, network, timeout). Anything else is
// reported to users through the generic message.
type CredentialStore interface {
	SignInWithPassword(ctx context.Context, email, password string) (*models.AuthSession, error)
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (*models.AuthSession, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	VerifyRecoveryToken(ctx context.Context, token string) (*models.AuthSession, error)
	UpdateUser(ctx context.Context, accessToken string, attrs models.UserAttributes) error
	GetUser(ctx context.Context, accessToken string) (*models.User, error)
	SignOut(ctx context.Context, accessToken string) error
	ExchangeCodeForSession(ctx context.Context, provider, code, redirectURI string) (*models.AuthSession, error)
}

// ContextStore is the expiring per-browser-session store.
type ContextStore interface {
	Set(ctx context.Context, sessionID string, key authcontext.Key, value string, ttl time.Duration) error
	Get(ctx context.Context, sessionID string, key authcontext.Key) (string, bool, error)
	Remove(ctx context.Context, sessionID string, key authcontext.Key) error
	Clear(ctx context.Context, sessionID string) error
	SetJSON(ctx context.Context, sessionID string, key authcontext.Key, v any, ttl time.Duration) error
	GetJSON(ctx context.Context, sessionID string, key authcontext.Key, dst any) (bool, error)
}

// StateIssuer issues and single-use validates OAuth state tokens.
type StateIssuer interface {
	Issue(ctx context.Context, sessionID string) (string, error)
	Validate(ctx context.Context, sessionID, received string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Config holds the settings the orchestrator needs.
type Config struct {
	// PublicURL is the externally visible origin, used for provider callbacks
	// and reset email links.
	PublicURL string
	// Providers maps provider names to their OAuth client configuration.
	// RedirectURL is filled in per request.
	Providers map[string]*oauth2.Config
	// ContextTTL bounds redirect, competition and flow entries.
	ContextTTL time.Duration
}

// Service orchestrates login, signup, OAuth and password reset while keeping
// the user's intended destination across navigations.
type Service struct {
	creds   CredentialStore
	store   ContextStore
	states  StateIssuer
	cfg     Config
	logger  *slog.Logger
	audit   AuditPublisher
	metrics *metrics.Metrics
	tracer  tracer.Tracer
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

const defaultContextTTL = authcontext.DefaultTTL

func New(creds CredentialStore, store ContextStore, states StateIssuer, cfg Config, opts ...Option) *Service {
	svc := &Service{
		creds:  creds,
		store:  store,
		states: states,
		cfg:    cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.tracer == nil {
		svc.tracer = tracer.NewNoop()
	}
	if svc.cfg.ContextTTL <= 0 {
		svc.cfg.ContextTTL = defaultContextTTL
	}
	if svc.cfg.Providers == nil {
		svc.cfg.Providers = map[string]*oauth2.Config{}
	}
	return svc
}
