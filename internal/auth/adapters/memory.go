package adapters

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"podium/internal/auth/models"
	dErrors "podium/pkg/domain-errors"
	"podium/pkg/secrets"
)

const (
	DefaultSessionTTL  = time.Hour
	DefaultRecoveryTTL = time.Hour
)

type memoryUser struct {
	user         models.User
	passwordHash string
	confirmed    bool
}

type memoryToken struct {
	userID    string
	expiresAt time.Time
}

// InMemoryCredentialStore is a local credential store for development and
// tests. Passwords are bcrypt hashed; error texts match the hosted backend so
// they map to the same user messages.
type InMemoryCredentialStore struct {
	mu          sync.Mutex
	users       map[string]*memoryUser // by lower-cased email
	sessions    map[string]memoryToken
	recoveries  map[string]memoryToken
	lastReset   map[string]string // email -> recovery token
	autoConfirm bool
	sessionTTL  time.Duration
	recoveryTTL time.Duration
	cost        int
	now         func() time.Time
}

type MemoryOption func(*InMemoryCredentialStore)

// WithAutoConfirm makes sign up return a session immediately.
func WithAutoConfirm(enabled bool) MemoryOption {
	return func(s *InMemoryCredentialStore) {
		s.autoConfirm = enabled
	}
}

func WithSessionTTL(ttl time.Duration) MemoryOption {
	return func(s *InMemoryCredentialStore) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

func WithRecoveryTTL(ttl time.Duration) MemoryOption {
	return func(s *InMemoryCredentialStore) {
		if ttl > 0 {
			s.recoveryTTL = ttl
		}
	}
}

// WithHashCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) MemoryOption {
	return func(s *InMemoryCredentialStore) {
		s.cost = cost
	}
}

func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *InMemoryCredentialStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewInMemoryCredentialStore(opts ...MemoryOption) *InMemoryCredentialStore {
	s := &InMemoryCredentialStore{
		users:       make(map[string]*memoryUser),
		sessions:    make(map[string]memoryToken),
		recoveries:  make(map[string]memoryToken),
		lastReset:   make(map[string]string),
		autoConfirm: true,
		sessionTTL:  DefaultSessionTTL,
		recoveryTTL: DefaultRecoveryTTL,
		cost:        bcrypt.DefaultCost,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func backendError(code dErrors.Code, text string) error {
	return dErrors.Wrap(errors.New(text), code, "credential store rejected the request")
}

func (s *InMemoryCredentialStore) SignInWithPassword(_ context.Context, email, password string) (*models.AuthSession, error) {
	s.mu.Lock()
	u, ok := s.users[strings.ToLower(email)]
	s.mu.Unlock()
	if !ok {
		return nil, backendError(dErrors.CodeUnauthorized, "Invalid login credentials")
	}
	if err := secrets.VerifyPassword(password, u.passwordHash); err != nil {
		return nil, backendError(dErrors.CodeUnauthorized, "Invalid login credentials")
	}
	if !u.confirmed {
		return nil, backendError(dErrors.CodeUnauthorized, "Email not confirmed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newSessionLocked(u.user)
}

func (s *InMemoryCredentialStore) SignUp(_ context.Context, email, password string, _ map[string]string) (*models.AuthSession, error) {
	hash, err := secrets.HashPassword(password, s.cost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(email)
	if _, exists := s.users[key]; exists {
		return nil, backendError(dErrors.CodeUnknown, "User already registered")
	}
	u := &memoryUser{
		user:         models.User{ID: uuid.NewString(), Email: key},
		passwordHash: hash,
		confirmed:    s.autoConfirm,
	}
	s.users[key] = u
	if !u.confirmed {
		return &models.AuthSession{User: u.user}, nil
	}
	return s.newSessionLocked(u.user)
}

// ResetPasswordForEmail issues a recovery token. Unknown addresses succeed
// silently so the endpoint does not reveal which accounts exist.
func (s *InMemoryCredentialStore) ResetPasswordForEmail(_ context.Context, email, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(email)
	u, ok := s.users[key]
	if !ok {
		return nil
	}
	token, err := secrets.Token()
	if err != nil {
		return err
	}
	s.recoveries[token] = memoryToken{userID: u.user.ID, expiresAt: s.now().Add(s.recoveryTTL)}
	s.lastReset[key] = token
	return nil
}

// VerifyRecoveryToken redeems a recovery token once for a session that ends
// when the token would have.
func (s *InMemoryCredentialStore) VerifyRecoveryToken(_ context.Context, token string) (*models.AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recoveries[token]
	delete(s.recoveries, token)
	if !ok || !s.now().Before(rec.expiresAt) {
		return nil, dErrors.Wrap(errors.New("Token has expired or is invalid"), dErrors.CodeExpiredToken, "credential store rejected the request")
	}
	u := s.userByIDLocked(rec.userID)
	if u == nil {
		return nil, backendError(dErrors.CodeInvalidToken, "User not found")
	}
	access, err := secrets.Token()
	if err != nil {
		return nil, err
	}
	s.sessions[access] = memoryToken{userID: u.user.ID, expiresAt: rec.expiresAt}
	return &models.AuthSession{User: u.user, AccessToken: access, ExpiresAt: rec.expiresAt}, nil
}

func (s *InMemoryCredentialStore) UpdateUser(_ context.Context, accessToken string, attrs models.UserAttributes) error {
	s.mu.Lock()
	u, err := s.userForTokenLocked(accessToken)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if attrs.Password == "" {
		return nil
	}
	if secrets.VerifyPassword(attrs.Password, u.passwordHash) == nil {
		return backendError(dErrors.CodeUnknown, "New password should be different from the old password.")
	}
	hash, err := secrets.HashPassword(attrs.Password, s.cost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u.passwordHash = hash
	u.confirmed = true
	return nil
}

func (s *InMemoryCredentialStore) GetUser(_ context.Context, accessToken string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.userForTokenLocked(accessToken)
	if err != nil {
		return nil, err
	}
	user := u.user
	return &user, nil
}

func (s *InMemoryCredentialStore) SignOut(_ context.Context, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, accessToken)
	return nil
}

// ExchangeCodeForSession accepts codes of the form "<email>" and signs that
// user in, creating it when needed. It stands in for a provider round trip.
func (s *InMemoryCredentialStore) ExchangeCodeForSession(_ context.Context, provider, code, _ string) (*models.AuthSession, error) {
	if code == "" || !strings.Contains(code, "@") {
		return nil, backendError(dErrors.CodeUnauthorized, "invalid_grant")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(code)
	u, ok := s.users[key]
	if !ok {
		u = &memoryUser{user: models.User{ID: uuid.NewString(), Email: key}, confirmed: true}
		s.users[key] = u
	}
	return s.newSessionLocked(u.user)
}

// LastRecoveryToken returns the most recent recovery token sent to email.
func (s *InMemoryCredentialStore) LastRecoveryToken(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lastReset[strings.ToLower(email)]
	return t, ok
}

func (s *InMemoryCredentialStore) newSessionLocked(user models.User) (*models.AuthSession, error) {
	access, err := secrets.Token()
	if err != nil {
		return nil, err
	}
	expires := s.now().Add(s.sessionTTL)
	s.sessions[access] = memoryToken{userID: user.ID, expiresAt: expires}
	return &models.AuthSession{User: user, AccessToken: access, ExpiresAt: expires}, nil
}

func (s *InMemoryCredentialStore) userForTokenLocked(accessToken string) (*memoryUser, error) {
	tok, ok := s.sessions[accessToken]
	if !ok || !s.now().Before(tok.expiresAt) {
		delete(s.sessions, accessToken)
		return nil, backendError(dErrors.CodeInvalidToken, "invalid JWT: token is expired")
	}
	u := s.userByIDLocked(tok.userID)
	if u == nil {
		return nil, backendError(dErrors.CodeInvalidToken, "User not found")
	}
	return u, nil
}

func (s *InMemoryCredentialStore) userByIDLocked(id string) *memoryUser {
	for _, u := range s.users {
		if u.user.ID == id {
			return u
		}
	}
	return nil
}
