package audit

import "time"

// Event records a security-relevant step of an auth flow. It never carries
// tokens, codes, state values or passwords.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	SessionID string    `json:"session_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Provider  string    `json:"provider,omitempty"`
	Flow      string    `json:"flow,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	EventOAuthStarted       AuditEvent = "oauth_started"
	EventOAuthStateRejected AuditEvent = "oauth_state_rejected"
	EventOAuthCompleted     AuditEvent = "oauth_completed"
	EventSignInSucceeded    AuditEvent = "sign_in_succeeded"
	EventSignUpSucceeded    AuditEvent = "sign_up_succeeded"
	EventAuthFailed         AuditEvent = "auth_failed"
	EventResetRequested     AuditEvent = "password_reset_requested"
	EventResetTokenRejected AuditEvent = "password_reset_token_rejected"
	EventResetCompleted     AuditEvent = "password_reset_completed"
	EventSignedOut          AuditEvent = "signed_out"
)
