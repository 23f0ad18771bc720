// Package deeplink recognises inbound links that should survive an auth
// round trip, works out where they came from and proposes the canonical
// place to send the user.
package deeplink

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"podium/internal/auth/models"
	"podium/internal/auth/urlpolicy"
)

const slugPattern = `([A-Za-z0-9_-]{1,128})`

type competitionPattern struct {
	re     *regexp.Regexp
	action models.Action
}

// competitionPatterns are tried in order; the first match wins.
var competitionPatterns = []competitionPattern{
	{regexp.MustCompile(`^/competitions?/` + slugPattern + `/enter/?$`), models.ActionEnter},
	{regexp.MustCompile(`^/competitions?/` + slugPattern + `/results/?$`), models.ActionResults},
	{regexp.MustCompile(`^/competitions?/` + slugPattern + `/?$`), models.ActionView},
	{regexp.MustCompile(`^/c/` + slugPattern + `/?$`), models.ActionView},
}

// deepLinkParams mark a link as a deep link on their own.
var deepLinkParams = []string{models.ParamInvite, models.ParamShare, models.ParamToken, models.ParamRedirect}

// CompetitionContext is the competition a path points at.
type CompetitionContext struct {
	Slug   string
	Action models.Action
}

// ExtractCompetitionContext matches path against the known competition shapes.
func ExtractCompetitionContext(path string) (CompetitionContext, bool) {
	for _, p := range competitionPatterns {
		m := p.re.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		return CompetitionContext{Slug: m[1], Action: p.action}, true
	}
	return CompetitionContext{}, false
}

// Request is the part of an inbound navigation the classifier looks at.
type Request struct {
	Path      string
	Query     url.Values
	UserAgent string
	Referrer  string
}

// Classify builds the deep link description of one inbound navigation.
func Classify(req Request, now time.Time) models.DeepLinkData {
	query := req.Query
	if query == nil {
		query = url.Values{}
	}

	data := models.DeepLinkData{
		Source:      DetermineSource(query, req.UserAgent, req.Referrer),
		OriginalURL: originalURL(req.Path, query),
		Params:      query,
		Timestamp:   now,
		UserAgent:   req.UserAgent,
		Referrer:    req.Referrer,
	}

	if cc, ok := ExtractCompetitionContext(req.Path); ok {
		data.IsDeepLink = true
		data.CompetitionSlug = cc.Slug
		data.Action = refineAction(cc.Action, query)
	}
	if hasDeepLinkParams(query) {
		data.IsDeepLink = true
	}
	return data
}

// refineAction turns a plain view into invite or share when the link says so.
func refineAction(action models.Action, query url.Values) models.Action {
	if action != models.ActionView {
		return action
	}
	switch {
	case query.Get(models.ParamInvite) != "":
		return models.ActionInvite
	case query.Get(models.ParamShare) != "":
		return models.ActionShare
	default:
		return action
	}
}

func hasDeepLinkParams(query url.Values) bool {
	if urlpolicy.HasCampaignParams(query) {
		return true
	}
	for _, key := range models.TrackingIDParams {
		if query.Has(key) {
			return true
		}
	}
	for _, key := range deepLinkParams {
		if query.Has(key) {
			return true
		}
	}
	return false
}

// originalURL rebuilds the request target without secrets that may ride along.
func originalURL(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	kept := url.Values{}
	for k, v := range query {
		if k == models.ParamToken || k == models.ParamCode || k == models.ParamState {
			continue
		}
		kept[k] = v
	}
	return urlpolicy.WithQuery(path, kept)
}

func isAuthPath(path string) bool {
	return strings.HasPrefix(path, models.PathAuthPrefix)
}
