package service

import (
	"time"

	"go.uber.org/mock/gomock"

	"podium/internal/auth/models"
	"podium/internal/auth/reset"
	"podium/internal/auth/store/authcontext"
	dErrors "podium/pkg/domain-errors"
)

func (s *ServiceSuite) verifiedReset(recoveryTTL time.Duration) {
	s.mockCreds.EXPECT().ResetPasswordForEmail(gomock.Any(), "runner@example.com", gomock.Any()).Return(nil)
	s.mockCreds.EXPECT().VerifyRecoveryToken(gomock.Any(), "recovery-token").
		Return(&models.AuthSession{AccessToken: "recovery-session", ExpiresAt: s.now.Add(recoveryTTL)}, nil)

	_, err := s.service.RequestReset(s.ctx, s.nav(""), "runner@example.com")
	s.Require().NoError(err)
	status, err := s.service.VerifyResetToken(s.ctx, s.nav(""), "recovery-token")
	s.Require().NoError(err)
	s.Require().Equal(models.ResetStateReset, status.State)
}

func (s *ServiceSuite) TestResetHappyPath() {
	nav := s.nav("redirect=/competitions/spring-5k/enter")
	s.mockCreds.EXPECT().
		ResetPasswordForEmail(gomock.Any(), "runner@example.com", testPublicURL+"/auth/reset?redirect=/competitions/spring-5k/enter").
		Return(nil)

	status, err := s.service.RequestReset(s.ctx, nav, "runner@example.com")
	s.Require().NoError(err)
	s.Equal(models.ResetStateSent, status.State)

	s.mockCreds.EXPECT().VerifyRecoveryToken(gomock.Any(), "recovery-token").
		Return(&models.AuthSession{AccessToken: "recovery-session", ExpiresAt: s.now.Add(time.Hour)}, nil)
	status, err = s.service.VerifyResetToken(s.ctx, s.nav(""), "recovery-token")
	s.Require().NoError(err)
	s.Equal(models.ResetStateReset, status.State)

	s.mockCreds.EXPECT().UpdateUser(gomock.Any(), "recovery-session", models.UserAttributes{Password: "Str0ngPass"}).Return(nil)
	status, err = s.service.SubmitNewPassword(s.ctx, s.nav(""), &models.NewPasswordRequest{Password: "Str0ngPass", Confirmation: "Str0ngPass"})
	s.Require().NoError(err)
	s.Equal(models.ResetStateSuccess, status.State)

	status, err = s.service.CompleteReset(s.ctx, s.nav(""))
	s.Require().NoError(err)
	s.Equal(models.PathLogin, status.RedirectTo)

	_, ok := s.stored(authcontext.KeyResetSession)
	s.False(ok)
	status, err = s.service.ResetStatus(s.ctx, s.nav(""))
	s.Require().NoError(err)
	s.Equal(models.ResetStateRequest, status.State)
}

func (s *ServiceSuite) TestRequestResetAfterUncompletedSuccess() {
	s.verifiedReset(time.Hour)
	s.mockCreds.EXPECT().UpdateUser(gomock.Any(), "recovery-session", gomock.Any()).Return(nil)
	status, err := s.service.SubmitNewPassword(s.ctx, s.nav(""), &models.NewPasswordRequest{Password: "Str0ngPass", Confirmation: "Str0ngPass"})
	s.Require().NoError(err)
	s.Require().Equal(models.ResetStateSuccess, status.State)

	s.mockCreds.EXPECT().ResetPasswordForEmail(gomock.Any(), "runner@example.com", gomock.Any()).Return(nil)
	status, err = s.service.RequestReset(s.ctx, s.nav(""), "runner@example.com")
	s.Require().NoError(err)
	s.Equal(models.ResetStateSent, status.State)
}

func (s *ServiceSuite) TestResendReset() {
	s.mockCreds.EXPECT().ResetPasswordForEmail(gomock.Any(), "runner@example.com", gomock.Any()).Return(nil).Times(2)

	_, err := s.service.RequestReset(s.ctx, s.nav(""), "runner@example.com")
	s.Require().NoError(err)
	status, err := s.service.ResendReset(s.ctx, s.nav(""))
	s.Require().NoError(err)
	s.Equal(models.ResetStateSent, status.State)
}

func (s *ServiceSuite) TestResetRequestFailureStaysAtRequest() {
	s.mockCreds.EXPECT().ResetPasswordForEmail(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(dErrors.New(dErrors.CodeNetwork, "credential store unreachable"))

	status, err := s.service.RequestReset(s.ctx, s.nav(""), "runner@example.com")
	s.True(dErrors.HasCode(err, dErrors.CodeNetwork))
	s.Equal(models.ResetStateRequest, status.State)
	s.Equal(MsgNetwork, status.Message)
}

func (s *ServiceSuite) TestSubmitNewPasswordFieldErrors() {
	s.verifiedReset(time.Hour)

	status, err := s.service.SubmitNewPassword(s.ctx, s.nav(""), &models.NewPasswordRequest{Password: "Str0ngPass", Confirmation: "Str0ngPasz"})
	s.True(dErrors.HasCode(err, dErrors.CodePasswordMismatch))
	s.Equal(models.ResetStateReset, status.State)
	s.Equal(MsgPasswordMismatch, status.FieldErrors[reset.FieldConfirmation])

	status, err = s.service.SubmitNewPassword(s.ctx, s.nav(""), &models.NewPasswordRequest{Password: "weak", Confirmation: "weak"})
	s.True(dErrors.HasCode(err, dErrors.CodeWeakPassword))
	s.Equal(models.ResetStateReset, status.State)
	s.Equal(MsgWeakPassword, status.FieldErrors[reset.FieldPassword])
}

func (s *ServiceSuite) TestExpiredRecoveryToken() {
	s.mockCreds.EXPECT().VerifyRecoveryToken(gomock.Any(), "stale-token").
		Return(nil, dErrors.New(dErrors.CodeExpiredToken, "Token has expired or is invalid"))

	status, err := s.service.VerifyResetToken(s.ctx, s.nav(""), "stale-token")
	s.True(dErrors.HasCode(err, dErrors.CodeExpiredToken))
	s.Equal(models.ResetStateExpired, status.State)
	s.Equal(MsgExpiredToken, status.Message)
}

func (s *ServiceSuite) TestResetReadPastRecoveryExpiry() {
	s.verifiedReset(10 * time.Minute)

	s.now = s.now.Add(15 * time.Minute)
	status, err := s.service.ResetStatus(s.ctx, s.nav(""))
	s.Require().NoError(err)
	s.Equal(models.ResetStateExpired, status.State)
}

func (s *ServiceSuite) TestLateUpdateReplyIsAFailure() {
	s.verifiedReset(10 * time.Minute)

	s.mockCreds.EXPECT().UpdateUser(gomock.Any(), "recovery-session", gomock.Any()).
		DoAndReturn(func(_ any, _ string, _ models.UserAttributes) error {
			s.now = s.now.Add(11 * time.Minute)
			return nil
		})

	status, err := s.service.SubmitNewPassword(s.ctx, s.nav(""), &models.NewPasswordRequest{Password: "Str0ngPass", Confirmation: "Str0ngPass"})
	s.True(dErrors.HasCode(err, dErrors.CodeExpiredToken))
	s.Equal(models.ResetStateExpired, status.State)
}

func (s *ServiceSuite) TestCompleteResetBeforeSuccess() {
	status, err := s.service.CompleteReset(s.ctx, s.nav(""))
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal(models.ResetStateRequest, status.State)
	s.Empty(status.RedirectTo)
}
