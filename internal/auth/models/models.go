package models

import (
	"net/url"
	"time"
)

// Canonical paths emitted by the auth subsystem.
const (
	PathLogin        = "/auth/login"
	PathSignup       = "/auth/signup"
	PathReset        = "/auth/reset"
	PathCompetitions = "/competitions"
	PathCompetition  = "/competition/"
	PathAuthPrefix   = "/auth/"
)

// Recognised query parameters.
const (
	ParamRedirect         = "redirect"
	ParamCompetition      = "competition"
	ParamInvite           = "invite"
	ParamShare            = "share"
	ParamToken            = "token"
	ParamRef              = "ref"
	ParamFlow             = "flow"
	ParamState            = "state"
	ParamCode             = "code"
	ParamError            = "error"
	ParamErrorDescription = "error_description"
	ParamUTMSource        = "utm_source"
	ParamUTMMedium        = "utm_medium"
)

// TrackingIDParams are presence-only click identifiers added by ad and social platforms.
var TrackingIDParams = []string{"fbclid", "gclid", "msclkid", "twclid"}

// AuthURLContext is the auth-relevant view of one navigation's query string.
// It is derived per request and never persisted as-is; only validated fields
// reach the context store.
type AuthURLContext struct {
	RedirectURL      string `json:"redirect_url,omitempty"`
	CompetitionID    string `json:"competition_id,omitempty"`
	Flow             Flow   `json:"flow,omitempty"`
	OAuthState       string `json:"-"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// AuthURLContextFromQuery reads the auth parameters of a navigation. Values
// are taken as given; callers validate before trusting them.
func AuthURLContextFromQuery(q url.Values) AuthURLContext {
	flow, ok := ParseFlow(q.Get(ParamFlow))
	if !ok {
		flow = ""
	}
	return AuthURLContext{
		RedirectURL:      q.Get(ParamRedirect),
		CompetitionID:    q.Get(ParamCompetition),
		Flow:             flow,
		OAuthState:       q.Get(ParamState),
		Error:            q.Get(ParamError),
		ErrorDescription: q.Get(ParamErrorDescription),
	}
}

// HasError reports whether the navigation carried a provider error.
func (c AuthURLContext) HasError() bool {
	return c.Error != ""
}

// DeepLinkData describes an inbound link after classification.
type DeepLinkData struct {
	IsDeepLink      bool       `json:"is_deep_link"`
	Source          Source     `json:"source"`
	OriginalURL     string     `json:"original_url"`
	Params          url.Values `json:"params,omitempty"`
	CompetitionSlug string     `json:"competition_slug,omitempty"`
	Action          Action     `json:"action,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
	UserAgent       string     `json:"user_agent,omitempty"`
	Referrer        string     `json:"referrer,omitempty"`
}

// HasCompetition reports whether the link targets a specific competition.
func (d DeepLinkData) HasCompetition() bool {
	return d.CompetitionSlug != ""
}

// RouteDecision is the router's proposal for an inbound navigation.
type RouteDecision struct {
	ShouldRedirect bool   `json:"should_redirect"`
	Target         string `json:"target,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// Navigation is the per-request context threaded through the auth service.
// It lives exactly as long as the request that created it.
type Navigation struct {
	SessionID string
	RequestID string
	Context   AuthURLContext
	DeepLink  *DeepLinkData
	Now       time.Time
}

// User is the subset of credential-store identity the auth flows need.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthSession is a signed-in session returned by the credential store.
type AuthSession struct {
	User        User      `json:"user"`
	AccessToken string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// OAuthURL is the provider authorize URL plus the state bound to it.
type OAuthURL struct {
	URL   string `json:"url"`
	State string `json:"-"`
}

// UserAttributes are the fields the auth flows may change on a user.
type UserAttributes struct {
	Password string `json:"password,omitempty"`
}
