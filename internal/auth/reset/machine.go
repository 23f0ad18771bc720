// Package reset drives one password-reset attempt through
// request, sent, reset and success, with expired and error as exits.
package reset

import (
	"context"
	"fmt"
	"time"

	"podium/internal/auth/models"
	dErrors "podium/pkg/domain-errors"
)

const (
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldConfirmation = "confirmation"
)

// Credentials is the part of the credential store a reset attempt uses.
type Credentials interface {
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	VerifyRecoveryToken(ctx context.Context, token string) (*models.AuthSession, error)
	UpdateUser(ctx context.Context, accessToken string, attrs models.UserAttributes) error
}

// Snapshot is the persisted form of an attempt. RecoveryToken stays server side.
type Snapshot struct {
	State         models.ResetState `json:"state"`
	Email         string            `json:"email,omitempty"`
	Message       string            `json:"message,omitempty"`
	FieldErrors   map[string]string `json:"field_errors,omitempty"`
	RecoveryToken string            `json:"recovery_token,omitempty"`
	ExpiresAt     time.Time         `json:"expires_at,omitempty"`
	Resends       int               `json:"resends,omitempty"`
}

// MessageFunc turns a failure into the text shown to the user.
type MessageFunc func(error) string

// Machine holds a single attempt. It is not safe for concurrent use; each
// request restores its own copy from the snapshot.
type Machine struct {
	creds   Credentials
	snap    Snapshot
	message MessageFunc
	now     func() time.Time
}

type Option func(*Machine)

func WithMessages(fn MessageFunc) Option {
	return func(m *Machine) {
		if fn != nil {
			m.message = fn
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// New starts an attempt in the request state.
func New(creds Credentials, opts ...Option) *Machine {
	return Restore(Snapshot{State: models.ResetStateRequest}, creds, opts...)
}

// Restore resumes an attempt. An unknown state starts over at request, and a
// verified attempt past its recovery expiry becomes expired.
func Restore(snap Snapshot, creds Credentials, opts ...Option) *Machine {
	m := &Machine{
		creds:   creds,
		snap:    snap,
		message: func(err error) string { return err.Error() },
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if !m.snap.State.IsValid() {
		m.snap = Snapshot{State: models.ResetStateRequest}
	}
	if m.snap.State == models.ResetStateReset && m.recoveryExpired() {
		m.expire()
	}
	return m
}

func (m *Machine) State() models.ResetState {
	return m.snap.State
}

// Snapshot returns a copy suitable for persisting.
func (m *Machine) Snapshot() Snapshot {
	s := m.snap
	if m.snap.FieldErrors != nil {
		s.FieldErrors = make(map[string]string, len(m.snap.FieldErrors))
		for k, v := range m.snap.FieldErrors {
			s.FieldErrors[k] = v
		}
	}
	return s
}

// SubmitEmail asks the credential store to send a reset email. On failure the
// attempt stays at request with a message. Resubmitting from sent resends.
func (m *Machine) SubmitEmail(ctx context.Context, email, redirectTo string) error {
	switch m.snap.State {
	case models.ResetStateSent:
		m.snap.Email = email
		return m.Resend(ctx, redirectTo)
	case models.ResetStateExpired, models.ResetStateError:
		m.Restart()
	}
	if err := m.require(models.ResetStateSent); err != nil {
		return err
	}
	m.clearFeedback()
	if err := m.creds.ResetPasswordForEmail(ctx, email, redirectTo); err != nil {
		m.snap.Message = m.message(err)
		return err
	}
	m.snap.State = models.ResetStateSent
	m.snap.Email = email
	return nil
}

// Resend repeats the reset email for the address already on file.
func (m *Machine) Resend(ctx context.Context, redirectTo string) error {
	if m.snap.State != models.ResetStateSent {
		return m.transitionError(models.ResetStateSent)
	}
	m.clearFeedback()
	if err := m.creds.ResetPasswordForEmail(ctx, m.snap.Email, redirectTo); err != nil {
		m.snap.Message = m.message(err)
		return err
	}
	m.snap.Resends++
	return nil
}

// ArriveWithToken verifies a recovery token. A verified token moves the
// attempt to reset; an expired one to expired; anything else to error.
func (m *Machine) ArriveWithToken(ctx context.Context, token string) error {
	if m.snap.State.IsTerminal() {
		return m.transitionError(models.ResetStateReset)
	}
	m.clearFeedback()
	if token == "" {
		err := dErrors.New(dErrors.CodeInvalidToken, "recovery token is missing")
		m.fail(err)
		return err
	}
	session, err := m.creds.VerifyRecoveryToken(ctx, token)
	if err != nil {
		m.fail(err)
		return err
	}
	if session == nil || !m.now().Before(session.ExpiresAt) {
		err := dErrors.New(dErrors.CodeExpiredToken, "recovery session has expired")
		m.fail(err)
		return err
	}
	m.snap.State = models.ResetStateReset
	m.snap.RecoveryToken = session.AccessToken
	m.snap.ExpiresAt = session.ExpiresAt
	return nil
}

// SubmitPassword sets the new password. A mismatch or policy failure keeps
// the attempt at reset with a field error.
func (m *Machine) SubmitPassword(ctx context.Context, password, confirmation string) error {
	if m.snap.State != models.ResetStateReset {
		return m.transitionError(models.ResetStateSuccess)
	}
	m.clearFeedback()
	if m.recoveryExpired() {
		err := dErrors.New(dErrors.CodeExpiredToken, "recovery session has expired")
		m.fail(err)
		return err
	}
	if password != confirmation {
		err := dErrors.New(dErrors.CodePasswordMismatch, "passwords do not match")
		m.fieldError(FieldConfirmation, err)
		return err
	}
	if err := CheckPassword(password); err != nil {
		m.fieldError(FieldPassword, err)
		return err
	}
	if err := m.creds.UpdateUser(ctx, m.snap.RecoveryToken, models.UserAttributes{Password: password}); err != nil {
		switch dErrors.CodeOf(err) {
		case dErrors.CodeExpiredToken, dErrors.CodeInvalidToken:
			m.fail(err)
		case dErrors.CodeWeakPassword:
			m.fieldError(FieldPassword, err)
		default:
			m.snap.Message = m.message(err)
		}
		return err
	}
	// A reply that lands after the recovery window closed does not count.
	if m.recoveryExpired() {
		err := dErrors.New(dErrors.CodeExpiredToken, "recovery session has expired")
		m.fail(err)
		return err
	}
	m.snap.State = models.ResetStateSuccess
	m.snap.RecoveryToken = ""
	return nil
}

// Complete returns the login entry point once the attempt succeeded.
func (m *Machine) Complete() (string, error) {
	if m.snap.State != models.ResetStateSuccess {
		return "", dErrors.New(dErrors.CodeConflict, fmt.Sprintf("reset is in state %s, not success", m.snap.State))
	}
	return models.PathLogin, nil
}

// Restart begins a new attempt after expired or error.
func (m *Machine) Restart() {
	if m.snap.State.CanTransitionTo(models.ResetStateRequest) {
		m.snap = Snapshot{State: models.ResetStateRequest, Email: m.snap.Email}
	}
}

// NewAttempt discards a finished attempt so the same browser can reset again.
// An attempt still in progress is left as it is.
func (m *Machine) NewAttempt() {
	if m.snap.State.IsTerminal() {
		m.snap = Snapshot{State: models.ResetStateRequest}
	}
}

func (m *Machine) require(target models.ResetState) error {
	if !m.snap.State.CanTransitionTo(target) {
		return m.transitionError(target)
	}
	return nil
}

func (m *Machine) transitionError(target models.ResetState) error {
	return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("cannot move reset from %s to %s", m.snap.State, target))
}

func (m *Machine) recoveryExpired() bool {
	return !m.snap.ExpiresAt.IsZero() && !m.now().Before(m.snap.ExpiresAt)
}

func (m *Machine) fail(err error) {
	if dErrors.HasCode(err, dErrors.CodeExpiredToken) {
		m.expire()
	} else {
		m.snap.State = models.ResetStateError
		m.snap.RecoveryToken = ""
	}
	m.snap.Message = m.message(err)
}

func (m *Machine) expire() {
	m.snap.State = models.ResetStateExpired
	m.snap.RecoveryToken = ""
}

func (m *Machine) fieldError(field string, err error) {
	m.snap.FieldErrors = map[string]string{field: m.message(err)}
}

func (m *Machine) clearFeedback() {
	m.snap.Message = ""
	m.snap.FieldErrors = nil
}
