// Package session keeps the browser session in a signed cookie. The session
// id namespaces every server-side auth context entry; the remaining claims
// are present once the user has signed in.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"podium/internal/auth/models"
	dErrors "podium/pkg/domain-errors"
)

const (
	DefaultCookieName = "podium_session"
	DefaultTTL        = 24 * time.Hour
)

// Claims of the session cookie. Subject is the user id when signed in.
type Claims struct {
	SessionID   string `json:"sid"`
	Email       string `json:"email,omitempty"`
	AccessToken string `json:"at,omitempty"`
	jwt.RegisteredClaims
}

// SignedIn reports whether the claims belong to an authenticated user.
func (c *Claims) SignedIn() bool {
	return c.Subject != "" && c.AccessToken != ""
}

type contextKey struct{}

// FromContext returns the claims installed by Manager.Middleware.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(contextKey{}).(*Claims)
	return c, ok
}

// SessionID returns the browser session id of the request, or "".
func SessionID(ctx context.Context) string {
	if c, ok := FromContext(ctx); ok {
		return c.SessionID
	}
	return ""
}

// WithClaims installs claims into ctx. Used by tests and the middleware.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// Manager issues and verifies session cookies.
type Manager struct {
	signingKey []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Manager)

func WithCookieName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.cookieName = name
		}
	}
}

// WithTTL sets the lifetime of anonymous sessions.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithSecureCookies(secure bool) Option {
	return func(m *Manager) {
		m.secure = secure
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(signingKey string, opts ...Option) *Manager {
	m := &Manager{
		signingKey: []byte(signingKey),
		cookieName: DefaultCookieName,
		ttl:        DefaultTTL,
		secure:     true,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Middleware installs the session claims. A missing, expired or tampered
// cookie is replaced by a fresh anonymous session.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.fromRequest(r)
		if err != nil {
			claims, err = m.startAnonymous(w)
			if err != nil {
				m.logger.ErrorContext(r.Context(), "failed to start browser session", "error", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// Identity reports the session id and whether the user is signed in.
func (m *Manager) Identity(r *http.Request) (string, bool) {
	c, ok := FromContext(r.Context())
	if !ok {
		return "", false
	}
	return c.SessionID, c.SignedIn()
}

// SignIn rewrites the cookie for the authenticated user, keeping the session
// id. The cookie lives as long as the credential store session.
func (m *Manager) SignIn(w http.ResponseWriter, r *http.Request, s *models.AuthSession) error {
	if s == nil || s.AccessToken == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "session has no access token")
	}
	sid := SessionID(r.Context())
	if sid == "" {
		sid = uuid.NewString()
	}
	expires := s.ExpiresAt
	if expires.IsZero() {
		expires = m.now().Add(m.ttl)
	}
	claims := &Claims{
		SessionID:   sid,
		Email:       s.User.Email,
		AccessToken: s.AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: s.User.ID,
		},
	}
	return m.write(w, claims, expires)
}

// SignOut replaces the cookie with a new anonymous session.
func (m *Manager) SignOut(w http.ResponseWriter) error {
	_, err := m.startAnonymous(w)
	return err
}

// Issue signs claims valid until expires.
func (m *Manager) Issue(c *Claims, expires time.Time) (string, error) {
	now := m.now()
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(expires)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign session")
	}
	return signed, nil
}

// Parse verifies a session token. Only HS256 is accepted.
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "empty session")
	}
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "session expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session")
	}
	if !token.Valid || claims.SessionID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session")
	}
	return claims, nil
}

func (m *Manager) fromRequest(r *http.Request) (*Claims, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil, err
	}
	return m.Parse(cookie.Value)
}

func (m *Manager) startAnonymous(w http.ResponseWriter) (*Claims, error) {
	claims := &Claims{SessionID: uuid.NewString()}
	if err := m.write(w, claims, m.now().Add(m.ttl)); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *Manager) write(w http.ResponseWriter, c *Claims, expires time.Time) error {
	signed, err := m.Issue(c, expires)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    signed,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
