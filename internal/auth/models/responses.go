package models

// This file contains transport-layer response models for JSON output.

// DestinationResult tells the client where to navigate next.
type DestinationResult struct {
	RedirectTo string `json:"redirect_to"`
}

// SignInResult is returned after a successful sign in, sign up or OAuth callback.
type SignInResult struct {
	User                 User         `json:"user"`
	RedirectTo           string       `json:"redirect_to"`
	ConfirmationRequired bool         `json:"confirmation_required,omitempty"`
	Session              *AuthSession `json:"-"`
}

// FlowView is what a login, signup or reset page needs to render.
type FlowView struct {
	Flow          Flow     `json:"flow"`
	RedirectURL   string   `json:"redirect,omitempty"`
	CompetitionID string   `json:"competition,omitempty"`
	Providers     []string `json:"providers,omitempty"`
	ErrorMessage  string   `json:"error_message,omitempty"`
	LoginURL      string   `json:"login_url"`
	SignupURL     string   `json:"signup_url"`
	ResetURL      string   `json:"reset_url"`
}

// ResetStatus reports the current reset state to the client.
type ResetStatus struct {
	State       ResetState        `json:"state"`
	Message     string            `json:"message,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
	RedirectTo  string            `json:"redirect_to,omitempty"`
}

// ResetPage is the reset entry point: the flow links plus the attempt's state.
type ResetPage struct {
	*FlowView
	Reset *ResetStatus `json:"reset"`
}

// UserInfo is returned by GET /auth/destination for a signed-in user.
type UserInfo struct {
	SignedIn   bool   `json:"signed_in"`
	User       *User  `json:"user,omitempty"`
	RedirectTo string `json:"redirect_to"`
}
