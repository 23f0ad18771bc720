// Package domainerrors tags failures with a stable code that the service
// layer maps to user messages and the transport layer maps to statuses.
package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in business logic terms, not HTTP terms.
type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_failed"
	CodeInternal           Code = "internal_error"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"

	// Auth-flow failure kinds surfaced to users through the message table.
	CodeNetwork          Code = "network"
	CodeInvalidState     Code = "invalid_state"     // CSRF state missing, mismatched, expired or replayed
	CodeInvalidToken     Code = "invalid_token"     // Recovery or session token rejected by the credential store
	CodeExpiredToken     Code = "expired_token"     // Recovery token or reset session past its expiry
	CodeWeakPassword     Code = "weak_password"     // Password fails the complexity policy
	CodePasswordMismatch Code = "password_mismatch" // Password and confirmation differ
	CodeUnknown          Code = "unknown"           // Unmapped credential store failure
)

// Error wraps domain or infrastructure failures with a stable code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		// Preserve the original domain code, update message
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost domain error in the chain, or
// CodeUnknown when err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Retryable reports failures the user can fix by trying again later: the
// credential store was unreachable or too slow.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeNetwork, CodeTimeout:
		return true
	default:
		return false
	}
}
