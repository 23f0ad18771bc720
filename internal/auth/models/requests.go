package models

import (
	"strings"

	"podium/pkg/validation"
)

// SignInRequest is the body of POST /auth/login.
type SignInRequest struct {
	Email         string `json:"email" validate:"required,email,max=255"`
	Password      string `json:"password" validate:"required,max=256"`
	Redirect      string `json:"redirect,omitempty" validate:"max=2048"`
	CompetitionID string `json:"competition,omitempty" validate:"max=64"`
}

func (r *SignInRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Redirect = strings.TrimSpace(r.Redirect)
	r.CompetitionID = strings.TrimSpace(r.CompetitionID)
}

func (r *SignInRequest) Validate() error {
	return validation.Validate(r)
}

// SignUpRequest is the body of POST /auth/signup.
type SignUpRequest struct {
	Email         string `json:"email" validate:"required,email,max=255"`
	Password      string `json:"password" validate:"required,max=256"`
	DisplayName   string `json:"display_name,omitempty" validate:"max=100"`
	Redirect      string `json:"redirect,omitempty" validate:"max=2048"`
	CompetitionID string `json:"competition,omitempty" validate:"max=64"`
}

func (r *SignUpRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	r.Redirect = strings.TrimSpace(r.Redirect)
	r.CompetitionID = strings.TrimSpace(r.CompetitionID)
}

func (r *SignUpRequest) Validate() error {
	return validation.Validate(r)
}

// ResetRequest is the body of POST /auth/reset/request.
type ResetRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

func (r *ResetRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *ResetRequest) Validate() error {
	return validation.Validate(r)
}

// NewPasswordRequest is the body of POST /auth/reset/password. Complexity
// rules are enforced by the reset state machine, not here, so a weak password
// surfaces as a field error rather than a malformed request.
type NewPasswordRequest struct {
	Password     string `json:"password" validate:"required,max=256"`
	Confirmation string `json:"confirmation" validate:"max=256"`
}

func (r *NewPasswordRequest) Normalize() {}

func (r *NewPasswordRequest) Validate() error {
	return validation.Validate(r)
}
