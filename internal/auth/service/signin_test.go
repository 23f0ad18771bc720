package service

import (
	"errors"
	"time"

	"go.uber.org/mock/gomock"

	"podium/internal/auth/models"
	"podium/internal/auth/store/authcontext"
	dErrors "podium/pkg/domain-errors"
)

func (s *ServiceSuite) TestSignIn() {
	req := func() *models.SignInRequest {
		return &models.SignInRequest{Email: "runner@example.com", Password: "Str0ngPass"}
	}

	s.Run("returns to the stored destination", func() {
		_, err := s.service.PrepareFlow(s.ctx, s.nav("redirect=/competitions/spring-5k/enter"), models.FlowLogin)
		s.Require().NoError(err)
		s.mockCreds.EXPECT().SignInWithPassword(gomock.Any(), "runner@example.com", "Str0ngPass").Return(s.session(time.Hour), nil)

		result, err := s.service.SignIn(s.ctx, s.nav(""), req())
		s.Require().NoError(err)
		s.Equal("/competitions/spring-5k/enter", result.RedirectTo)
		s.Equal("access-token", result.Session.AccessToken)

		_, ok := s.stored(authcontext.KeyRedirectURL)
		s.False(ok)
		_, ok = s.stored(authcontext.KeySessionExpiry)
		s.True(ok)
	})

	s.Run("body redirect fills a missing query redirect", func() {
		r := req()
		r.Redirect = "/dashboard"
		s.mockCreds.EXPECT().SignInWithPassword(gomock.Any(), gomock.Any(), gomock.Any()).Return(s.session(time.Hour), nil)

		result, err := s.service.SignIn(s.ctx, s.nav(""), r)
		s.Require().NoError(err)
		s.Equal("/dashboard", result.RedirectTo)
	})

	s.Run("failure keeps the stored context", func() {
		_, err := s.service.PrepareFlow(s.ctx, s.nav("redirect=/competitions/spring-5k"), models.FlowLogin)
		s.Require().NoError(err)
		backendErr := errors.New("Invalid login credentials")
		s.mockCreds.EXPECT().SignInWithPassword(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, backendErr)

		result, err := s.service.SignIn(s.ctx, s.nav(""), req())
		s.Nil(result)
		s.ErrorIs(err, backendErr)
		s.Equal(MsgBadCredentials, UserMessage(err))

		redirect, ok := s.stored(authcontext.KeyRedirectURL)
		s.True(ok)
		s.Equal("/competitions/spring-5k", redirect)
	})
}

func (s *ServiceSuite) TestSignUp() {
	req := &models.SignUpRequest{Email: "new@example.com", Password: "Str0ngPass", DisplayName: "Ada"}

	s.Run("confirmation required keeps context for the later sign in", func() {
		nav := s.nav("redirect=/competitions/spring-5k/enter&competition=" + testCompetition)
		s.mockCreds.EXPECT().
			SignUp(gomock.Any(), "new@example.com", "Str0ngPass", map[string]string{"display_name": "Ada"}).
			Return(&models.AuthSession{User: models.User{ID: "user-7", Email: "new@example.com"}}, nil)

		result, err := s.service.SignUp(s.ctx, nav, req)
		s.Require().NoError(err)
		s.True(result.ConfirmationRequired)
		s.Equal("/auth/login?competition="+testCompetition+"&redirect=/competitions/spring-5k/enter", result.RedirectTo)
		s.Equal("user-7", result.User.ID)

		redirect, ok := s.stored(authcontext.KeyRedirectURL)
		s.True(ok)
		s.Equal("/competitions/spring-5k/enter", redirect)
		flow, _ := s.stored(authcontext.KeyFlow)
		s.Equal("login", flow)
	})

	s.Run("immediate session signs in", func() {
		s.mockCreds.EXPECT().SignUp(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(s.session(time.Hour), nil)

		result, err := s.service.SignUp(s.ctx, s.nav(""), req)
		s.Require().NoError(err)
		s.False(result.ConfirmationRequired)
		s.Equal("/competitions/spring-5k/enter", result.RedirectTo)
		_, ok := s.stored(authcontext.KeyRedirectURL)
		s.False(ok)
	})

	s.Run("backend failure", func() {
		s.mockCreds.EXPECT().SignUp(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Wrap(errors.New("User already registered"), dErrors.CodeUnknown, "sign up failed"))

		_, err := s.service.SignUp(s.ctx, s.nav(""), req)
		s.Equal(MsgAlreadyExists, UserMessage(err))
	})
}

func (s *ServiceSuite) TestLogout() {
	s.Run("clears context even when the backend fails", func() {
		_, err := s.service.PrepareFlow(s.ctx, s.nav("redirect=/dashboard"), models.FlowLogin)
		s.Require().NoError(err)
		s.mockCreds.EXPECT().SignOut(gomock.Any(), "access-token").Return(errors.New("boom"))

		s.Require().NoError(s.service.Logout(s.ctx, s.nav(""), "access-token"))
		_, ok := s.stored(authcontext.KeyRedirectURL)
		s.False(ok)
	})

	s.Run("anonymous sign out skips the backend", func() {
		s.Require().NoError(s.service.Logout(s.ctx, s.nav(""), ""))
	})
}

func (s *ServiceSuite) TestCurrentUser() {
	s.mockCreds.EXPECT().GetUser(gomock.Any(), "access-token").Return(&models.User{ID: "user-42"}, nil)

	user, err := s.service.CurrentUser(s.ctx, "access-token")
	s.Require().NoError(err)
	s.Equal("user-42", user.ID)
}
