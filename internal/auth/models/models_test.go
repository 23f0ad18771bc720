package models

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthURLContextFromQuery(t *testing.T) {
	q := url.Values{
		"redirect":          {"/dashboard"},
		"competition":       {"123e4567-e89b-12d3-a456-426614174000"},
		"flow":              {"signup"},
		"state":             {"s"},
		"error":             {"access_denied"},
		"error_description": {"user cancelled"},
	}

	got := AuthURLContextFromQuery(q)

	assert.Equal(t, AuthURLContext{
		RedirectURL:      "/dashboard",
		CompetitionID:    "123e4567-e89b-12d3-a456-426614174000",
		Flow:             FlowSignup,
		OAuthState:       "s",
		Error:            "access_denied",
		ErrorDescription: "user cancelled",
	}, got)
	assert.True(t, got.HasError())
}

func TestAuthURLContextFromQueryDropsUnknownFlow(t *testing.T) {
	got := AuthURLContextFromQuery(url.Values{"flow": {"admin"}})
	assert.Equal(t, Flow(""), got.Flow)
	assert.False(t, got.HasError())
}
