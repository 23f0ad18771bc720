package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"podium/internal/audit"
	"podium/internal/auth/models"
	"podium/internal/auth/store/authcontext"
	"podium/internal/auth/urlpolicy"
	"podium/internal/platform/tracer"
	dErrors "podium/pkg/domain-errors"
)

var ErrUnknownProvider = dErrors.New(dErrors.CodeBadRequest, "unknown oauth provider")

// BuildOAuthURL issues a state token, stores the validated context and
// returns the provider authorize URL. Everything the callback needs is
// written before the URL is handed out.
func (s *Service) BuildOAuthURL(ctx context.Context, nav *models.Navigation, provider, redirect, competitionID string) (result *models.OAuthURL, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanBuildOAuthURL, tracer.String(tracer.AttrProvider, provider))
	defer func() {
		span.End(err)
		s.observeOperation("oauth_build_url", start)
	}()

	cfg, ok := s.cfg.Providers[provider]
	if !ok {
		return nil, ErrUnknownProvider
	}

	flow := nav.Context.Flow
	if !flow.IsValid() {
		flow = models.FlowLogin
	}
	if !urlpolicy.IsValidRedirectURL(redirect) {
		redirect = ""
	}
	if !urlpolicy.IsValidCompetitionID(competitionID) {
		competitionID = ""
	}

	state, err := s.states.Issue(ctx, nav.SessionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to start sign-in")
	}
	if err := s.persistContext(ctx, nav.SessionID, flow, redirect, competitionID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to start sign-in")
	}

	authorize := *cfg
	authorize.RedirectURL = s.callbackURL(provider, redirect, competitionID)
	authURL := authorize.AuthCodeURL(state, oauth2.AccessTypeOnline)

	s.incrementFlowStarted(flow.String(), provider)
	s.logAudit(ctx, nav, audit.EventOAuthStarted, "provider", provider, "flow", flow.String())

	return &models.OAuthURL{URL: authURL, State: state}, nil
}

// HandleOAuthCallback validates the returned state exactly once, hands the
// code to the credential store and resolves the destination. Every failure
// clears the stored context and points back at the login page.
func (s *Service) HandleOAuthCallback(ctx context.Context, nav *models.Navigation, provider, code string) (result *models.SignInResult, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanOAuthCallback, tracer.String(tracer.AttrProvider, provider))
	defer func() {
		span.End(err)
		s.observeOperation("oauth_callback", start)
	}()

	fail := func(reason string, err error) (*models.SignInResult, error) {
		s.clearContext(ctx, nav)
		s.authFailure(ctx, nav, reason, err, "provider", provider)
		return &models.SignInResult{RedirectTo: loginWithError(err)}, err
	}

	if _, ok := s.cfg.Providers[provider]; !ok {
		return fail("unknown_provider", ErrUnknownProvider)
	}
	if nav.Context.HasError() {
		// The state is still consumed so it cannot be replayed.
		_ = s.states.Validate(ctx, nav.SessionID, nav.Context.OAuthState)
		return fail("provider_error", providerError(nav.Context))
	}
	if err := s.states.Validate(ctx, nav.SessionID, nav.Context.OAuthState); err != nil {
		s.incrementStateValidation("rejected")
		s.logAudit(ctx, nav, audit.EventOAuthStateRejected, "provider", provider)
		return fail("invalid_state", err)
	}
	s.incrementStateValidation("accepted")

	if code == "" {
		return fail("missing_code", dErrors.New(dErrors.CodeInvalidToken, "authorization code is missing"))
	}

	redirect, competition := validatedContext(nav.Context)
	session, err := s.creds.ExchangeCodeForSession(ctx, provider, code, s.callbackURL(provider, redirect, competition))
	if err != nil {
		return fail("code_exchange_failed", err)
	}

	destination := s.ResolveDestination(ctx, nav)
	s.completeSignIn(ctx, nav, session)
	s.logAudit(ctx, nav, audit.EventOAuthCompleted, "provider", provider, "user_id", session.User.ID)

	return &models.SignInResult{User: session.User, RedirectTo: destination, Session: session}, nil
}

// callbackURL is the provider redirect_uri. It carries the validated redirect
// and competition so they survive even if the stored context is lost.
func (s *Service) callbackURL(provider, redirect, competitionID string) string {
	q := url.Values{}
	if redirect != "" {
		q.Set(models.ParamRedirect, redirect)
	}
	if competitionID != "" {
		q.Set(models.ParamCompetition, competitionID)
	}
	base := strings.TrimRight(s.cfg.PublicURL, "/") + "/auth/callback/" + url.PathEscape(provider)
	return urlpolicy.WithQuery(base, q)
}

// completeSignIn drops the transient context and records when the new
// session ends.
func (s *Service) completeSignIn(ctx context.Context, nav *models.Navigation, session *models.AuthSession) {
	s.clearContext(ctx, nav)
	if session == nil || session.ExpiresAt.IsZero() {
		return
	}
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	if err := s.store.Set(ctx, nav.SessionID, authcontext.KeySessionExpiry, session.ExpiresAt.UTC().Format(time.RFC3339), ttl); err != nil {
		s.logger.WarnContext(ctx, "failed to record session expiry", "request_id", nav.RequestID, "error", err)
	}
}

func loginWithError(err error) string {
	return urlpolicy.WithQuery(models.PathLogin, url.Values{models.ParamError: {ErrorKind(err)}})
}

func providerError(c models.AuthURLContext) error {
	return dErrors.Wrap(errors.New(c.Error), dErrors.CodeUnauthorized, "identity provider returned an error")
}
