package deeplink

import (
	"net/url"
	"strings"

	"podium/internal/auth/models"
	"podium/internal/auth/urlpolicy"
)

const (
	ReasonAuthPage    = "auth_page"
	ReasonCompetition = "competition_deep_link"
	ReasonCampaign    = "campaign_landing"
	ReasonNone        = "none"
)

// safeLandingPrefixes are areas a social or email visitor may stay on.
var safeLandingPrefixes = []string{models.PathCompetitions, models.PathCompetition, "/dashboard"}

// CompetitionPath returns the canonical path for slug and action.
func CompetitionPath(slug string, action models.Action) string {
	return models.PathCompetition + slug + action.PathSuffix()
}

// Route proposes where the navigation at currentPath should go. It never
// redirects away from an auth page and never proposes the page the user is
// already on.
func Route(data models.DeepLinkData, currentPath string) models.RouteDecision {
	if isAuthPath(currentPath) {
		return models.RouteDecision{Reason: ReasonAuthPage}
	}

	params := urlpolicy.SanitizeCampaignParams(data.Params)

	if data.HasCompetition() {
		path := CompetitionPath(data.CompetitionSlug, data.Action)
		return models.RouteDecision{
			ShouldRedirect: path != currentPath,
			Target:         urlpolicy.WithQuery(path, params),
			Reason:         ReasonCompetition,
		}
	}

	if (data.Source == models.SourceSocial || data.Source == models.SourceEmail) && !isSafeLanding(currentPath) {
		return models.RouteDecision{
			ShouldRedirect: true,
			Target:         urlpolicy.WithQuery(models.PathCompetitions, campaignOnly(params)),
			Reason:         ReasonCampaign,
		}
	}

	return models.RouteDecision{Reason: ReasonNone}
}

func isSafeLanding(path string) bool {
	for _, prefix := range safeLandingPrefixes {
		if path == strings.TrimSuffix(prefix, "/") || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}

// campaignOnly keeps the utm_* subset for listing-page redirects.
func campaignOnly(params url.Values) url.Values {
	out := url.Values{}
	for _, key := range urlpolicy.CampaignKeys {
		if v, ok := params[key]; ok {
			out[key] = v
		}
	}
	return out
}
