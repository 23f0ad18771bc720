package service

import (
	"context"
	"errors"
	"strings"

	dErrors "podium/pkg/domain-errors"
)

// Messages shown to users. Backend error text never reaches a client.
const (
	MsgGeneric          = "Something went wrong. Please try again."
	MsgNetwork          = "We could not reach the server. Check your connection and try again."
	MsgTimeout          = "The request took too long. Please try again."
	MsgInvalidState     = "Your sign-in session could not be verified. Please start again."
	MsgInvalidToken     = "This link is not valid. Request a new one."
	MsgExpiredToken     = "This link has expired. Request a new one."
	MsgWeakPassword     = "Password must be at least 8 characters and include upper and lower case letters and a number."
	MsgPasswordMismatch = "Passwords do not match."
	MsgBadCredentials   = "Email or password is incorrect."
	MsgEmailUnconfirmed = "Please confirm your email address before signing in."
	MsgAlreadyExists    = "An account with this email already exists. Try signing in instead."
	MsgRateLimited      = "Too many attempts. Wait a moment and try again."
	MsgReusedPassword   = "Choose a password you have not used before."
	MsgProviderDenied   = "Sign-in with that provider was cancelled."
	MsgInvalidInput     = "Please check the highlighted fields and try again."
)

// codeMessages covers errors this service tags itself.
var codeMessages = map[dErrors.Code]string{
	dErrors.CodeNetwork:          MsgNetwork,
	dErrors.CodeTimeout:          MsgTimeout,
	dErrors.CodeInvalidState:     MsgInvalidState,
	dErrors.CodeInvalidToken:     MsgInvalidToken,
	dErrors.CodeExpiredToken:     MsgExpiredToken,
	dErrors.CodeWeakPassword:     MsgWeakPassword,
	dErrors.CodePasswordMismatch: MsgPasswordMismatch,
	dErrors.CodeValidation:       MsgInvalidInput,
	dErrors.CodeInvalidInput:     MsgInvalidInput,
}

// exactMessages matches the backend's full error text, lower cased.
var exactMessages = map[string]string{
	"invalid login credentials":                               MsgBadCredentials,
	"email not confirmed":                                     MsgEmailUnconfirmed,
	"user already registered":                                 MsgAlreadyExists,
	"token has expired or is invalid":                         MsgExpiredToken,
	"new password should be different from the old password.": MsgReusedPassword,
	"access_denied":                                           MsgProviderDenied,
}

type substringMessage struct {
	fragment string
	message  string
}

// substringMessages are tried in order; first hit wins.
var substringMessages = []substringMessage{
	{"rate limit", MsgRateLimited},
	{"too many requests", MsgRateLimited},
	{"failed to fetch", MsgNetwork},
	{"connection refused", MsgNetwork},
	{"network", MsgNetwork},
	{"deadline exceeded", MsgTimeout},
	{"timeout", MsgTimeout},
	{"password should be", MsgWeakPassword},
	{"expired", MsgExpiredToken},
	{"already registered", MsgAlreadyExists},
	{"invalid credentials", MsgBadCredentials},
}

// UserMessage maps err to a stable user-facing message: tagged code first,
// then exact backend text, then a substring of it, then the generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return MsgTimeout
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		if msg, ok := codeMessages[de.Code]; ok {
			return msg
		}
	}

	text := strings.ToLower(strings.TrimSpace(rootCause(err).Error()))
	if msg, ok := exactMessages[text]; ok {
		return msg
	}
	for _, m := range substringMessages {
		if strings.Contains(text, m.fragment) {
			return m.message
		}
	}
	return MsgGeneric
}

// ErrorKind is the metric and audit label for err.
func ErrorKind(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return string(dErrors.CodeTimeout)
	}
	return string(dErrors.CodeOf(err))
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
