package service

import (
	"context"
	"strings"

	"podium/internal/audit"
	"podium/internal/auth/models"
	"podium/internal/auth/reset"
	"podium/internal/auth/store/authcontext"
	"podium/internal/platform/tracer"
	dErrors "podium/pkg/domain-errors"
)

// ResetStatus reports the reset attempt of the browser session.
func (s *Service) ResetStatus(ctx context.Context, nav *models.Navigation) (*models.ResetStatus, error) {
	m, err := s.loadReset(ctx, nav)
	if err != nil {
		return nil, err
	}
	return resetStatus(m, ""), nil
}

// RequestReset sends the reset email. The link in it carries the validated
// redirect and competition so the user lands where they started. A finished
// attempt that was never completed does not block a new one.
func (s *Service) RequestReset(ctx context.Context, nav *models.Navigation, email string) (status *models.ResetStatus, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanResetRequest)
	defer func() { span.End(err) }()

	return s.driveReset(ctx, nav, func(m *reset.Machine) error {
		m.NewAttempt()
		return m.SubmitEmail(ctx, email, s.resetLink(nav))
	})
}

// ResendReset sends the email again to the address already on file.
func (s *Service) ResendReset(ctx context.Context, nav *models.Navigation) (status *models.ResetStatus, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanResetRequest)
	defer func() { span.End(err) }()

	return s.driveReset(ctx, nav, func(m *reset.Machine) error {
		return m.Resend(ctx, s.resetLink(nav))
	})
}

// VerifyResetToken handles arrival from the reset email.
func (s *Service) VerifyResetToken(ctx context.Context, nav *models.Navigation, token string) (status *models.ResetStatus, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanResetVerify)
	defer func() { span.End(err) }()

	status, err = s.driveReset(ctx, nav, func(m *reset.Machine) error {
		return m.ArriveWithToken(ctx, token)
	})
	if err != nil {
		s.logAudit(ctx, nav, audit.EventResetTokenRejected, "reason", ErrorKind(err))
	}
	return status, err
}

// SubmitNewPassword sets the new password for a verified attempt.
func (s *Service) SubmitNewPassword(ctx context.Context, nav *models.Navigation, req *models.NewPasswordRequest) (status *models.ResetStatus, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanResetPassword)
	defer func() { span.End(err) }()

	status, err = s.driveReset(ctx, nav, func(m *reset.Machine) error {
		return m.SubmitPassword(ctx, req.Password, req.Confirmation)
	})
	if err == nil {
		s.logAudit(ctx, nav, audit.EventResetCompleted)
	}
	return status, err
}

// CompleteReset ends a successful attempt: all stored context is cleared and
// the user is sent to the login page.
func (s *Service) CompleteReset(ctx context.Context, nav *models.Navigation) (*models.ResetStatus, error) {
	m, err := s.loadReset(ctx, nav)
	if err != nil {
		return nil, err
	}
	target, err := m.Complete()
	if err != nil {
		return resetStatus(m, ""), err
	}
	s.clearContext(ctx, nav)
	return resetStatus(m, target), nil
}

// driveReset loads the attempt, applies step and saves the result. The
// returned status reflects the attempt even when step failed.
func (s *Service) driveReset(ctx context.Context, nav *models.Navigation, step func(*reset.Machine) error) (*models.ResetStatus, error) {
	m, err := s.loadReset(ctx, nav)
	if err != nil {
		return nil, err
	}
	before := m.State()
	stepErr := step(m)
	if m.State() != before {
		s.incrementResetTransition(m.State())
		if m.State() == models.ResetStateSent {
			s.logAudit(ctx, nav, audit.EventResetRequested)
		}
	}
	if stepErr != nil && !dErrors.HasCode(stepErr, dErrors.CodeConflict) {
		s.authFailure(ctx, nav, "password_reset", stepErr)
	}
	if err := s.saveReset(ctx, nav, m); err != nil {
		return nil, err
	}
	return resetStatus(m, ""), stepErr
}

func (s *Service) loadReset(ctx context.Context, nav *models.Navigation) (*reset.Machine, error) {
	var snap reset.Snapshot
	ok, err := s.store.GetJSON(ctx, nav.SessionID, authcontext.KeyResetSession, &snap)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load password reset")
	}
	opts := []reset.Option{reset.WithMessages(UserMessage), reset.WithClock(s.now)}
	if !ok {
		return reset.New(s.creds, opts...), nil
	}
	return reset.Restore(snap, s.creds, opts...), nil
}

// saveReset stores the attempt for at least the context TTL. A verified
// attempt is kept until its recovery session closes so a late read still
// reports expired instead of starting over.
func (s *Service) saveReset(ctx context.Context, nav *models.Navigation, m *reset.Machine) error {
	snap := m.Snapshot()
	ttl := s.cfg.ContextTTL
	if snap.State == models.ResetStateReset && !snap.ExpiresAt.IsZero() {
		if remaining := snap.ExpiresAt.Sub(s.now()); remaining > ttl {
			ttl = remaining
		}
	}
	if err := s.store.SetJSON(ctx, nav.SessionID, authcontext.KeyResetSession, snap, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save password reset")
	}
	return nil
}

func (s *Service) resetLink(nav *models.Navigation) string {
	redirect, competition := validatedContext(nav.Context)
	return strings.TrimRight(s.cfg.PublicURL, "/") + BuildAuthFlowURL(models.FlowReset, redirect, competition, nil)
}

func resetStatus(m *reset.Machine, redirectTo string) *models.ResetStatus {
	snap := m.Snapshot()
	return &models.ResetStatus{
		State:       snap.State,
		Message:     snap.Message,
		FieldErrors: snap.FieldErrors,
		RedirectTo:  redirectTo,
	}
}
