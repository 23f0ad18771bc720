package service

import (
	"net/url"
	"strings"
	"time"

	"go.uber.org/mock/gomock"

	"podium/internal/auth/models"
	"podium/internal/auth/store/authcontext"
	dErrors "podium/pkg/domain-errors"
)

func (s *ServiceSuite) TestBuildOAuthURL() {
	s.Run("stores validated context before returning the authorize url", func() {
		nav := s.nav("flow=signup")

		result, err := s.service.BuildOAuthURL(s.ctx, nav, "google", "/competitions/spring-5k/enter", testCompetition)
		s.Require().NoError(err)

		u, err := url.Parse(result.URL)
		s.Require().NoError(err)
		s.Equal("accounts.example.com", u.Host)
		s.Equal("/o/oauth2/auth", u.Path)
		q := u.Query()
		s.Equal("podium-web", q.Get("client_id"))
		s.Equal("code", q.Get("response_type"))
		s.Equal(result.State, q.Get("state"))
		s.Regexp(`^[0-9a-f]{64}$`, result.State)
		s.Equal(testPublicURL+"/auth/callback/google?competition="+testCompetition+"&redirect=/competitions/spring-5k/enter", q.Get("redirect_uri"))

		redirect, ok := s.stored(authcontext.KeyRedirectURL)
		s.True(ok)
		s.Equal("/competitions/spring-5k/enter", redirect)
		competition, ok := s.stored(authcontext.KeyCompetitionID)
		s.True(ok)
		s.Equal(testCompetition, competition)
		flow, ok := s.stored(authcontext.KeyFlow)
		s.True(ok)
		s.Equal("signup", flow)
		_, ok = s.stored(authcontext.KeyContextBackup)
		s.True(ok)
	})

	s.Run("invalid redirect and competition are dropped", func() {
		s.Require().NoError(s.store.Clear(s.ctx, testSessionID))

		result, err := s.service.BuildOAuthURL(s.ctx, s.nav(""), "google", "javascript:alert(1)", "../../etc/passwd")
		s.Require().NoError(err)

		u, err := url.Parse(result.URL)
		s.Require().NoError(err)
		s.Equal(testPublicURL+"/auth/callback/google", u.Query().Get("redirect_uri"))
		_, ok := s.stored(authcontext.KeyRedirectURL)
		s.False(ok)
		_, ok = s.stored(authcontext.KeyCompetitionID)
		s.False(ok)
		flow, _ := s.stored(authcontext.KeyFlow)
		s.Equal("login", flow)
	})

	s.Run("unknown provider", func() {
		result, err := s.service.BuildOAuthURL(s.ctx, s.nav(""), "myspace", "/dashboard", "")
		s.Nil(result)
		s.ErrorIs(err, ErrUnknownProvider)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestOAuthStateIsSingleUse() {
	result, err := s.service.BuildOAuthURL(s.ctx, s.nav(""), "google", "/dashboard", "")
	s.Require().NoError(err)

	u, err := url.Parse(result.URL)
	s.Require().NoError(err)
	embedded := u.Query().Get("state")

	s.Require().NoError(s.states.Validate(s.ctx, testSessionID, embedded))
	err = s.states.Validate(s.ctx, testSessionID, embedded)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *ServiceSuite) TestHandleOAuthCallback() {
	begin := func(redirect string) string {
		result, err := s.service.BuildOAuthURL(s.ctx, s.nav(""), "google", redirect, testCompetition)
		s.Require().NoError(err)
		return result.State
	}

	s.Run("success resolves the stored destination and clears context", func() {
		st := begin("/competitions/spring-5k/enter")
		s.mockCreds.EXPECT().
			ExchangeCodeForSession(gomock.Any(), "google", "auth-code", testPublicURL+"/auth/callback/google").
			Return(s.session(time.Hour), nil)

		result, err := s.service.HandleOAuthCallback(s.ctx, s.nav("state="+st), "google", "auth-code")
		s.Require().NoError(err)
		s.Equal("/competitions/spring-5k/enter", result.RedirectTo)
		s.Equal("user-42", result.User.ID)

		_, ok := s.stored(authcontext.KeyRedirectURL)
		s.False(ok)
		_, ok = s.stored(authcontext.KeyOAuthState)
		s.False(ok)
		expiry, ok := s.stored(authcontext.KeySessionExpiry)
		s.True(ok)
		s.Equal(s.now.Add(time.Hour).Format(time.RFC3339), expiry)
	})

	s.Run("replayed state is rejected", func() {
		st := begin("/dashboard")
		s.mockCreds.EXPECT().ExchangeCodeForSession(gomock.Any(), "google", "auth-code", gomock.Any()).
			Return(s.session(time.Hour), nil)

		_, err := s.service.HandleOAuthCallback(s.ctx, s.nav("state="+st), "google", "auth-code")
		s.Require().NoError(err)

		result, err := s.service.HandleOAuthCallback(s.ctx, s.nav("state="+st), "google", "auth-code")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		s.Equal("/auth/login?error=invalid_state", result.RedirectTo)
	})

	s.Run("mismatched state clears stored context", func() {
		begin("/competitions/spring-5k")

		result, err := s.service.HandleOAuthCallback(s.ctx, s.nav("state="+strings.Repeat("0", 64)), "google", "auth-code")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		s.Equal("/auth/login?error=invalid_state", result.RedirectTo)
		_, ok := s.stored(authcontext.KeyRedirectURL)
		s.False(ok)
		_, ok = s.stored(authcontext.KeyContextBackup)
		s.False(ok)
	})

	s.Run("provider error consumes the state", func() {
		st := begin("/dashboard")

		result, err := s.service.HandleOAuthCallback(s.ctx, s.nav("error=access_denied&state="+st), "google", "")
		s.Require().Error(err)
		s.Equal(MsgProviderDenied, UserMessage(err))
		s.Equal("/auth/login?error=unauthorized", result.RedirectTo)
		s.True(dErrors.HasCode(s.states.Validate(s.ctx, testSessionID, st), dErrors.CodeInvalidState))
	})

	s.Run("missing code", func() {
		st := begin("/dashboard")

		result, err := s.service.HandleOAuthCallback(s.ctx, s.nav("state="+st), "google", "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
		s.Equal("/auth/login?error=invalid_token", result.RedirectTo)
	})

	s.Run("exchange failure clears stored context", func() {
		st := begin("/competitions/spring-5k")
		s.mockCreds.EXPECT().ExchangeCodeForSession(gomock.Any(), "google", "auth-code", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNetwork, "credential store unreachable"))

		result, err := s.service.HandleOAuthCallback(s.ctx, s.nav("state="+st), "google", "auth-code")
		s.True(dErrors.HasCode(err, dErrors.CodeNetwork))
		s.Equal("/auth/login?error=network", result.RedirectTo)
		_, ok := s.stored(authcontext.KeyCompetitionID)
		s.False(ok)
	})

	s.Run("unknown provider", func() {
		result, err := s.service.HandleOAuthCallback(s.ctx, s.nav("state=abc"), "myspace", "auth-code")
		s.ErrorIs(err, ErrUnknownProvider)
		s.Equal(models.PathLogin+"?error=bad_request", result.RedirectTo)
	})
}
