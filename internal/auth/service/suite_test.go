package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/oauth2"

	"podium/internal/auth/models"
	"podium/internal/auth/service/mocks"
	"podium/internal/auth/state"
	"podium/internal/auth/store/authcontext"
)

const (
	testSessionID   = "sid-7f3c"
	testCompetition = "3f2b8c1e-4d5a-4b6c-8d7e-9f0a1b2c3d4e"
	testPublicURL   = "https://podium.example"
)

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mockCreds *mocks.MockCredentialStore
	mockAudit *mocks.MockAuditPublisher
	store     *authcontext.Store
	states    *state.Service
	service   *Service
	now       time.Time
	ctx       context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }

	s.ctrl = gomock.NewController(s.T())
	s.mockCreds = mocks.NewMockCredentialStore(s.ctrl)
	s.mockAudit = mocks.NewMockAuditPublisher(s.ctrl)
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	s.store = authcontext.New(authcontext.NewInMemoryStorage(), authcontext.WithClock(clock))
	s.states = state.NewService(s.store)
	cfg := Config{
		PublicURL: testPublicURL,
		Providers: map[string]*oauth2.Config{
			"google": {
				ClientID:     "podium-web",
				ClientSecret: "not-a-secret",
				Scopes:       []string{"openid", "email"},
				Endpoint: oauth2.Endpoint{
					AuthURL:  "https://accounts.example.com/o/oauth2/auth",
					TokenURL: "https://accounts.example.com/o/oauth2/token",
				},
			},
		},
	}
	s.service = New(s.mockCreds, s.store, s.states, cfg,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.mockAudit),
		WithClock(clock),
	)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

// nav builds the navigation for a request carrying rawQuery.
func (s *ServiceSuite) nav(rawQuery string) *models.Navigation {
	q, err := url.ParseQuery(rawQuery)
	s.Require().NoError(err)
	return &models.Navigation{
		SessionID: testSessionID,
		RequestID: "req-1",
		Context:   models.AuthURLContextFromQuery(q),
		Now:       s.now,
	}
}

func (s *ServiceSuite) stored(key authcontext.Key) (string, bool) {
	v, ok, err := s.store.Get(s.ctx, testSessionID, key)
	s.Require().NoError(err)
	return v, ok
}

func (s *ServiceSuite) session(ttl time.Duration) *models.AuthSession {
	return &models.AuthSession{
		User:        models.User{ID: "user-42", Email: "runner@example.com"},
		AccessToken: "access-token",
		ExpiresAt:   s.now.Add(ttl),
	}
}
