package models

// Flow is the kind of authentication journey the user is on.
type Flow string

const (
	FlowLogin  Flow = "login"
	FlowSignup Flow = "signup"
	FlowReset  Flow = "reset"
)

func (f Flow) IsValid() bool {
	return f == FlowLogin || f == FlowSignup || f == FlowReset
}

func (f Flow) String() string {
	return string(f)
}

// Path returns the canonical entry point for the flow.
func (f Flow) Path() string {
	switch f {
	case FlowSignup:
		return PathSignup
	case FlowReset:
		return PathReset
	default:
		return PathLogin
	}
}

// ParseFlow returns the flow named by s, or false when s is not a known flow.
func ParseFlow(s string) (Flow, bool) {
	f := Flow(s)
	return f, f.IsValid()
}

// Source is the traffic origin of an inbound link.
type Source string

const (
	SourceWeb    Source = "web"
	SourceMobile Source = "mobile"
	SourceEmail  Source = "email"
	SourceSocial Source = "social"
	SourceDirect Source = "direct"
)

func (s Source) String() string {
	return string(s)
}

// Action is what the user intended to do with a competition.
type Action string

const (
	ActionEnter   Action = "enter"
	ActionView    Action = "view"
	ActionResults Action = "results"
	ActionInvite  Action = "invite"
	ActionShare   Action = "share"
)

func (a Action) String() string {
	return string(a)
}

// PathSuffix returns the canonical competition path suffix for the action.
// invite and share land on the competition view.
func (a Action) PathSuffix() string {
	switch a {
	case ActionEnter:
		return "/enter"
	case ActionResults:
		return "/results"
	default:
		return ""
	}
}

// ResetState is the position of a password-reset attempt.
type ResetState string

const (
	ResetStateRequest ResetState = "request"
	ResetStateSent    ResetState = "sent"
	ResetStateReset   ResetState = "reset"
	ResetStateSuccess ResetState = "success"
	ResetStateExpired ResetState = "expired"
	ResetStateError   ResetState = "error"
)

func (s ResetState) IsValid() bool {
	switch s {
	case ResetStateRequest, ResetStateSent, ResetStateReset, ResetStateSuccess, ResetStateExpired, ResetStateError:
		return true
	default:
		return false
	}
}

func (s ResetState) String() string {
	return string(s)
}

// IsTerminal reports whether no user action other than leaving the flow applies.
func (s ResetState) IsTerminal() bool {
	return s == ResetStateSuccess
}

// CanTransitionTo checks if a transition from the current state to the target is valid.
// Valid transitions:
// - request -> sent (reset email dispatched)
// - sent -> sent (resend)
// - any non-terminal -> reset (recovery token verified)
// - reset -> success (password updated)
// - any non-terminal -> expired | error
func (s ResetState) CanTransitionTo(target ResetState) bool {
	if s.IsTerminal() {
		return false
	}
	switch target {
	case ResetStateSent:
		return s == ResetStateRequest || s == ResetStateSent
	case ResetStateReset, ResetStateExpired, ResetStateError:
		return true
	case ResetStateSuccess:
		return s == ResetStateReset
	case ResetStateRequest:
		return s == ResetStateExpired || s == ResetStateError
	default:
		return false
	}
}
