package reset

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"podium/internal/auth/models"
	dErrors "podium/pkg/domain-errors"
)

// fakeCredentials records calls and returns canned answers.
type fakeCredentials struct {
	resetErr    error
	resetCalls  []string
	verify      *models.AuthSession
	verifyErr   error
	updateErr   error
	updates     []models.UserAttributes
	updateToken string
	onUpdate    func()
}

func (f *fakeCredentials) ResetPasswordForEmail(_ context.Context, email, redirectTo string) error {
	f.resetCalls = append(f.resetCalls, email+" "+redirectTo)
	return f.resetErr
}

func (f *fakeCredentials) VerifyRecoveryToken(context.Context, string) (*models.AuthSession, error) {
	return f.verify, f.verifyErr
}

func (f *fakeCredentials) UpdateUser(_ context.Context, accessToken string, attrs models.UserAttributes) error {
	if f.onUpdate != nil {
		f.onUpdate()
	}
	f.updateToken = accessToken
	f.updates = append(f.updates, attrs)
	return f.updateErr
}

type MachineSuite struct {
	suite.Suite
	creds *fakeCredentials
	now   time.Time
	ctx   context.Context
}

func TestMachineSuite(t *testing.T) {
	suite.Run(t, new(MachineSuite))
}

func (s *MachineSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	s.creds = &fakeCredentials{
		verify: &models.AuthSession{AccessToken: "recovery-session", ExpiresAt: s.now.Add(time.Hour)},
	}
}

func (s *MachineSuite) machine() *Machine {
	return New(s.creds, WithClock(func() time.Time { return s.now }))
}

// verified returns a machine sitting at reset.
func (s *MachineSuite) verified() *Machine {
	m := s.machine()
	s.Require().NoError(m.ArriveWithToken(s.ctx, "recovery-token"))
	s.Require().Equal(models.ResetStateReset, m.State())
	return m
}

func (s *MachineSuite) TestSubmitEmailMovesToSent() {
	m := s.machine()
	s.Require().NoError(m.SubmitEmail(s.ctx, "runner@example.com", "https://podium.example/auth/reset"))

	s.Equal(models.ResetStateSent, m.State())
	s.Equal([]string{"runner@example.com https://podium.example/auth/reset"}, s.creds.resetCalls)
	s.Equal("runner@example.com", m.Snapshot().Email)
}

func (s *MachineSuite) TestSubmitEmailFailureStaysAtRequest() {
	s.creds.resetErr = errors.New("Email rate limit exceeded")
	m := s.machine()

	err := m.SubmitEmail(s.ctx, "runner@example.com", "")
	s.Error(err)
	s.Equal(models.ResetStateRequest, m.State())
	s.Equal("Email rate limit exceeded", m.Snapshot().Message)
}

func (s *MachineSuite) TestResendStaysAtSent() {
	m := s.machine()
	s.Require().NoError(m.SubmitEmail(s.ctx, "runner@example.com", ""))
	s.Require().NoError(m.Resend(s.ctx, ""))
	s.Require().NoError(m.SubmitEmail(s.ctx, "other@example.com", ""))

	s.Equal(models.ResetStateSent, m.State())
	s.Equal(2, m.Snapshot().Resends)
	s.Len(s.creds.resetCalls, 3)
	s.Equal("other@example.com ", s.creds.resetCalls[2])
}

func (s *MachineSuite) TestResendRequiresSent() {
	err := s.machine().Resend(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Empty(s.creds.resetCalls)
}

func (s *MachineSuite) TestArriveWithTokenFromAnyOpenState() {
	for _, start := range []models.ResetState{models.ResetStateRequest, models.ResetStateSent, models.ResetStateExpired, models.ResetStateError} {
		s.Run(start.String(), func() {
			m := Restore(Snapshot{State: start}, s.creds, WithClock(func() time.Time { return s.now }))
			s.Require().NoError(m.ArriveWithToken(s.ctx, "recovery-token"))
			s.Equal(models.ResetStateReset, m.State())
			s.Equal("recovery-session", m.Snapshot().RecoveryToken)
		})
	}
}

func (s *MachineSuite) TestArriveWithoutToken() {
	m := s.machine()
	err := m.ArriveWithToken(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
	s.Equal(models.ResetStateError, m.State())
}

func (s *MachineSuite) TestExpiredTokenFromAnyState() {
	s.creds.verifyErr = dErrors.New(dErrors.CodeExpiredToken, "Token has expired or is invalid")
	for _, start := range []models.ResetState{models.ResetStateRequest, models.ResetStateSent, models.ResetStateReset, models.ResetStateError} {
		s.Run(start.String(), func() {
			m := Restore(Snapshot{State: start, ExpiresAt: s.now.Add(time.Hour)}, s.creds, WithClock(func() time.Time { return s.now }))
			s.Error(m.ArriveWithToken(s.ctx, "stale"))
			s.Equal(models.ResetStateExpired, m.State())
			s.Empty(m.Snapshot().RecoveryToken)
		})
	}
}

func (s *MachineSuite) TestRejectedTokenMovesToError() {
	s.creds.verifyErr = dErrors.New(dErrors.CodeInvalidToken, "token not found")
	m := s.machine()
	s.Error(m.ArriveWithToken(s.ctx, "forged"))
	s.Equal(models.ResetStateError, m.State())
}

func (s *MachineSuite) TestSessionAlreadyExpiredOnArrival() {
	s.creds.verify = &models.AuthSession{AccessToken: "recovery-session", ExpiresAt: s.now}
	m := s.machine()
	err := m.ArriveWithToken(s.ctx, "recovery-token")
	s.True(dErrors.HasCode(err, dErrors.CodeExpiredToken))
	s.Equal(models.ResetStateExpired, m.State())
}

func (s *MachineSuite) TestPasswordMismatchStaysAtReset() {
	m := s.verified()
	err := m.SubmitPassword(s.ctx, "Str0ngPass", "Str0ngPas")

	s.True(dErrors.HasCode(err, dErrors.CodePasswordMismatch))
	s.Equal(models.ResetStateReset, m.State())
	s.Contains(m.Snapshot().FieldErrors, FieldConfirmation)
	s.Empty(s.creds.updates)
}

func (s *MachineSuite) TestWeakPasswordStaysAtReset() {
	m := s.verified()
	err := m.SubmitPassword(s.ctx, "password", "password")

	s.True(dErrors.HasCode(err, dErrors.CodeWeakPassword))
	s.Equal(models.ResetStateReset, m.State())
	s.Contains(m.Snapshot().FieldErrors, FieldPassword)
}

func (s *MachineSuite) TestValidPasswordSucceeds() {
	m := s.verified()
	s.Require().NoError(m.SubmitPassword(s.ctx, "Str0ngPass", "Str0ngPass"))

	s.Equal(models.ResetStateSuccess, m.State())
	s.Equal("recovery-session", s.creds.updateToken)
	s.Equal([]models.UserAttributes{{Password: "Str0ngPass"}}, s.creds.updates)
	s.Empty(m.Snapshot().RecoveryToken)

	target, err := m.Complete()
	s.Require().NoError(err)
	s.Equal(models.PathLogin, target)
}

func (s *MachineSuite) TestSuccessIsTerminal() {
	m := s.verified()
	s.Require().NoError(m.SubmitPassword(s.ctx, "Str0ngPass", "Str0ngPass"))

	s.True(dErrors.HasCode(m.ArriveWithToken(s.ctx, "recovery-token"), dErrors.CodeConflict))
	s.True(dErrors.HasCode(m.SubmitEmail(s.ctx, "runner@example.com", ""), dErrors.CodeConflict))
	s.Equal(models.ResetStateSuccess, m.State())
}

func (s *MachineSuite) TestNewAttemptAfterSuccess() {
	m := s.verified()
	s.Require().NoError(m.SubmitPassword(s.ctx, "Str0ngPass", "Str0ngPass"))

	m.NewAttempt()
	s.Equal(models.ResetStateRequest, m.State())
	s.Empty(m.Snapshot().RecoveryToken)
	s.Require().NoError(m.SubmitEmail(s.ctx, "runner@example.com", ""))
	s.Equal(models.ResetStateSent, m.State())
}

func (s *MachineSuite) TestNewAttemptKeepsInProgressAttempt() {
	m := s.verified()
	m.NewAttempt()
	s.Equal(models.ResetStateReset, m.State())
}

func (s *MachineSuite) TestUpdateRejectedForExpiredToken() {
	s.creds.updateErr = dErrors.New(dErrors.CodeExpiredToken, "session expired")
	m := s.verified()
	s.Error(m.SubmitPassword(s.ctx, "Str0ngPass", "Str0ngPass"))
	s.Equal(models.ResetStateExpired, m.State())
}

func (s *MachineSuite) TestUpdateOtherFailureKeepsReset() {
	s.creds.updateErr = errors.New("New password should be different from the old password.")
	m := s.verified()
	s.Error(m.SubmitPassword(s.ctx, "Str0ngPass", "Str0ngPass"))
	s.Equal(models.ResetStateReset, m.State())
	s.NotEmpty(m.Snapshot().Message)
}

func (s *MachineSuite) TestReplyAfterExpiryIsAFailure() {
	m := s.verified()
	s.creds.onUpdate = func() { s.now = s.now.Add(2 * time.Hour) }

	err := m.SubmitPassword(s.ctx, "Str0ngPass", "Str0ngPass")
	s.True(dErrors.HasCode(err, dErrors.CodeExpiredToken))
	s.Equal(models.ResetStateExpired, m.State())
}

func (s *MachineSuite) TestSubmitPasswordOutsideReset() {
	err := s.machine().SubmitPassword(s.ctx, "Str0ngPass", "Str0ngPass")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *MachineSuite) TestRestartFromExpired() {
	m := Restore(Snapshot{State: models.ResetStateExpired, Email: "runner@example.com"}, s.creds)
	s.Require().NoError(m.SubmitEmail(s.ctx, "runner@example.com", ""))
	s.Equal(models.ResetStateSent, m.State())
}

func (s *MachineSuite) TestCompleteBeforeSuccess() {
	_, err := s.machine().Complete()
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestRestore(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	clock := WithClock(func() time.Time { return now })

	m := Restore(Snapshot{State: "bogus", Email: "x@example.com"}, nil, clock)
	assert.Equal(t, models.ResetStateRequest, m.State())
	assert.Empty(t, m.Snapshot().Email)

	m = Restore(Snapshot{State: models.ResetStateReset, RecoveryToken: "t", ExpiresAt: now.Add(-time.Second)}, nil, clock)
	assert.Equal(t, models.ResetStateExpired, m.State())
	assert.Empty(t, m.Snapshot().RecoveryToken)

	m = Restore(Snapshot{State: models.ResetStateReset, RecoveryToken: "t", ExpiresAt: now.Add(time.Minute)}, nil, clock)
	assert.Equal(t, models.ResetStateReset, m.State())
}

func TestWithMessages(t *testing.T) {
	creds := &fakeCredentials{resetErr: errors.New("raw backend text")}
	m := New(creds, WithMessages(func(error) string { return "friendly" }))
	require.Error(t, m.SubmitEmail(context.Background(), "runner@example.com", ""))
	assert.Equal(t, "friendly", m.Snapshot().Message)
}

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		password string
		ok       bool
	}{
		{"Str0ngPass", true},
		{"Aa1aaaaa", true},
		{"Aa1aaaa", false},
		{"alllower1", false},
		{"ALLUPPER1", false},
		{"NoDigitsHere", false},
		{"Ünïcödé1x", true},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := CheckPassword(tt.password)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, dErrors.HasCode(err, dErrors.CodeWeakPassword))
		})
	}
}
