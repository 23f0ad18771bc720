package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "podium/pkg/domain-errors"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"tagged invalid state", dErrors.New(dErrors.CodeInvalidState, "state mismatch"), MsgInvalidState},
		{"tagged network", dErrors.New(dErrors.CodeNetwork, "dial tcp: refused"), MsgNetwork},
		{"tagged expired token", dErrors.New(dErrors.CodeExpiredToken, "expired"), MsgExpiredToken},
		{"tagged weak password", dErrors.New(dErrors.CodeWeakPassword, "password must contain a number"), MsgWeakPassword},
		{"exact backend text", errors.New("Invalid login credentials"), MsgBadCredentials},
		{"exact text behind a wrap", dErrors.Wrap(errors.New("Email not confirmed"), dErrors.CodeUnauthorized, "sign in failed"), MsgEmailUnconfirmed},
		{"substring", errors.New("email rate limit exceeded"), MsgRateLimited},
		{"substring is case insensitive", errors.New("Request Timeout from upstream"), MsgTimeout},
		{"context deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), MsgTimeout},
		{"unmapped", errors.New("pq: relation does not exist"), MsgGeneric},
		{"unmapped code", dErrors.New(dErrors.CodeInternal, "disk full"), MsgGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestUserMessageNeverEchoesBackendText(t *testing.T) {
	err := errors.New("secret-internal-hostname-01 exploded")
	assert.NotContains(t, UserMessage(err), "secret-internal-hostname-01")
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "invalid_state", ErrorKind(dErrors.New(dErrors.CodeInvalidState, "x")))
	assert.Equal(t, "timeout", ErrorKind(context.DeadlineExceeded))
	assert.Equal(t, "unknown", ErrorKind(errors.New("plain")))
}
