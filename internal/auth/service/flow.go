package service

import (
	"context"
	"net/url"
	"sort"

	"podium/internal/auth/models"
	"podium/internal/auth/store/authcontext"
	"podium/internal/auth/urlpolicy"
	dErrors "podium/pkg/domain-errors"
)

// contextBackup is a single-entry copy of the validated context, read when
// the individual keys are missing.
type contextBackup struct {
	RedirectURL   string      `json:"redirect_url,omitempty"`
	CompetitionID string      `json:"competition_id,omitempty"`
	Flow          models.Flow `json:"flow,omitempty"`
}

// BuildAuthFlowURL returns the entry point for flow. redirect and
// competitionID are attached only when valid; extra passes through campaign
// sanitation. An unknown flow yields the login page.
func BuildAuthFlowURL(flow models.Flow, redirect, competitionID string, extra url.Values) string {
	q := urlpolicy.SanitizeCampaignParams(extra)
	if urlpolicy.IsValidRedirectURL(redirect) {
		q.Set(models.ParamRedirect, redirect)
	}
	if urlpolicy.IsValidCompetitionID(competitionID) {
		q.Set(models.ParamCompetition, competitionID)
	}
	return urlpolicy.WithQuery(flow.Path(), q)
}

// PrepareFlow stores the validated context of the current navigation before
// a login, signup or reset page is shown, and returns what the page needs.
func (s *Service) PrepareFlow(ctx context.Context, nav *models.Navigation, flow models.Flow) (*models.FlowView, error) {
	if !flow.IsValid() {
		flow = models.FlowLogin
	}
	redirect, competition := validatedContext(nav.Context)
	if err := s.persistContext(ctx, nav.SessionID, flow, redirect, competition); err != nil {
		return nil, err
	}

	view := &models.FlowView{
		Flow:          flow,
		RedirectURL:   redirect,
		CompetitionID: competition,
		Providers:     s.providerNames(),
		LoginURL:      BuildAuthFlowURL(models.FlowLogin, redirect, competition, nil),
		SignupURL:     BuildAuthFlowURL(models.FlowSignup, redirect, competition, nil),
		ResetURL:      BuildAuthFlowURL(models.FlowReset, redirect, competition, nil),
	}
	if nav.Context.HasError() {
		view.ErrorMessage = errorParamMessage(nav.Context)
	}
	return view, nil
}

// ResolveDestination picks where to send the user after auth. Order: the
// navigation's redirect, the stored redirect, the stored then navigation
// competition, the context backup, then the competitions listing. Storage
// failures fall through to the next source.
func (s *Service) ResolveDestination(ctx context.Context, nav *models.Navigation) string {
	if urlpolicy.IsValidRedirectURL(nav.Context.RedirectURL) {
		return nav.Context.RedirectURL
	}
	if v := s.storedValue(ctx, nav.SessionID, authcontext.KeyRedirectURL); urlpolicy.IsValidRedirectURL(v) {
		return v
	}
	if v := s.storedValue(ctx, nav.SessionID, authcontext.KeyCompetitionID); urlpolicy.IsValidCompetitionID(v) {
		return models.PathCompetition + v
	}
	if urlpolicy.IsValidCompetitionID(nav.Context.CompetitionID) {
		return models.PathCompetition + nav.Context.CompetitionID
	}

	var backup contextBackup
	ok, err := s.store.GetJSON(ctx, nav.SessionID, authcontext.KeyContextBackup, &backup)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read context backup", "request_id", nav.RequestID, "error", err)
	}
	if ok {
		if urlpolicy.IsValidRedirectURL(backup.RedirectURL) {
			return backup.RedirectURL
		}
		if urlpolicy.IsValidCompetitionID(backup.CompetitionID) {
			return models.PathCompetition + backup.CompetitionID
		}
	}
	return urlpolicy.DefaultDestination
}

// RememberDeepLink stores a captured deep link for an anonymous visitor so
// signing in returns them to it.
func (s *Service) RememberDeepLink(ctx context.Context, sessionID string, data models.DeepLinkData, target string) error {
	if !urlpolicy.IsValidRedirectURL(target) {
		return nil
	}
	competition := ""
	if urlpolicy.IsValidCompetitionID(data.CompetitionSlug) {
		competition = data.CompetitionSlug
	}
	return s.persistContext(ctx, sessionID, "", target, competition)
}

// persistContext writes the validated fields and refreshes the backup.
// Empty fields leave earlier entries alone.
func (s *Service) persistContext(ctx context.Context, sessionID string, flow models.Flow, redirect, competition string) error {
	ttl := s.cfg.ContextTTL
	if redirect != "" {
		if err := s.store.Set(ctx, sessionID, authcontext.KeyRedirectURL, redirect, ttl); err != nil {
			return err
		}
	}
	if competition != "" {
		if err := s.store.Set(ctx, sessionID, authcontext.KeyCompetitionID, competition, ttl); err != nil {
			return err
		}
	}
	if flow != "" {
		if err := s.store.Set(ctx, sessionID, authcontext.KeyFlow, flow.String(), ttl); err != nil {
			return err
		}
	}

	backup := contextBackup{
		RedirectURL:   s.storedValue(ctx, sessionID, authcontext.KeyRedirectURL),
		CompetitionID: s.storedValue(ctx, sessionID, authcontext.KeyCompetitionID),
		Flow:          models.Flow(s.storedValue(ctx, sessionID, authcontext.KeyFlow)),
	}
	if backup == (contextBackup{}) {
		return nil
	}
	return s.store.SetJSON(ctx, sessionID, authcontext.KeyContextBackup, backup, ttl)
}

func (s *Service) storedValue(ctx context.Context, sessionID string, key authcontext.Key) string {
	v, ok, err := s.store.Get(ctx, sessionID, key)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read auth context", "key", key.String(), "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

// clearContext drops every stored entry of the session. Failures are logged;
// stale entries expire on their own.
func (s *Service) clearContext(ctx context.Context, nav *models.Navigation) {
	if err := s.store.Clear(ctx, nav.SessionID); err != nil {
		s.logger.WarnContext(ctx, "failed to clear auth context", "request_id", nav.RequestID, "error", err)
	}
}

func validatedContext(c models.AuthURLContext) (redirect, competition string) {
	if urlpolicy.IsValidRedirectURL(c.RedirectURL) {
		redirect = c.RedirectURL
	}
	if urlpolicy.IsValidCompetitionID(c.CompetitionID) {
		competition = c.CompetitionID
	}
	return redirect, competition
}

func (s *Service) providerNames() []string {
	names := make([]string, 0, len(s.cfg.Providers))
	for name := range s.cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// errorParamMessage explains the error parameter on an auth page. Failure
// kinds set by this service map directly; provider errors go through the
// message table.
func errorParamMessage(c models.AuthURLContext) string {
	if msg, ok := codeMessages[dErrors.Code(c.Error)]; ok {
		return msg
	}
	return UserMessage(providerError(c))
}
