package service

import (
	"context"
	"time"

	"podium/internal/audit"
	"podium/internal/auth/models"
	"podium/pkg/attrs"
)

// Observability helpers. Attributes passed here must never include tokens,
// codes, state values or passwords.

func (s *Service) logAudit(ctx context.Context, nav *models.Navigation, event audit.AuditEvent, attributes ...any) {
	args := append(attributes, "event", string(event), "log_type", "audit", "request_id", nav.RequestID)
	s.logger.InfoContext(ctx, string(event), args...)
	if s.audit == nil {
		return
	}
	err := s.audit.Emit(ctx, audit.Event{
		Timestamp: s.now(),
		Action:    string(event),
		SessionID: nav.SessionID,
		UserID:    attrs.ExtractString(attributes, "user_id"),
		Provider:  attrs.ExtractString(attributes, "provider"),
		Flow:      attrs.ExtractString(attributes, "flow"),
		Reason:    attrs.ExtractString(attributes, "reason"),
		RequestID: nav.RequestID,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "error", err)
	}
}

// authFailure logs and audits a failed attempt. The error is logged by kind
// only; backend text can echo user input.
func (s *Service) authFailure(ctx context.Context, nav *models.Navigation, reason string, err error, attributes ...any) {
	kind := ErrorKind(err)
	args := append(attributes, "event", string(audit.EventAuthFailed), "reason", reason, "kind", kind, "request_id", nav.RequestID)
	s.logger.WarnContext(ctx, string(audit.EventAuthFailed), args...)
	if s.metrics != nil {
		s.metrics.IncrementAuthFailure(kind)
	}
	if s.audit == nil {
		return
	}
	if emitErr := s.audit.Emit(ctx, audit.Event{
		Timestamp: s.now(),
		Action:    string(audit.EventAuthFailed),
		SessionID: nav.SessionID,
		Provider:  attrs.ExtractString(attributes, "provider"),
		Decision:  "denied",
		Reason:    reason,
		RequestID: nav.RequestID,
	}); emitErr != nil {
		s.logger.ErrorContext(ctx, "failed to emit auth failure audit event", "error", emitErr)
	}
}

func (s *Service) incrementFlowStarted(flow, provider string) {
	if s.metrics != nil {
		s.metrics.IncrementFlowStarted(flow, provider)
	}
}

func (s *Service) incrementStateValidation(result string) {
	if s.metrics != nil {
		s.metrics.IncrementStateValidation(result)
	}
}

func (s *Service) incrementResetTransition(state models.ResetState) {
	if s.metrics != nil {
		s.metrics.IncrementResetTransition(state.String())
	}
}

func (s *Service) observeOperation(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, start)
	}
}
