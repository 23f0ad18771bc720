// Package urlpolicy holds the allowlist checks applied to every user-supplied
// redirect target, competition identifier and campaign parameter before any
// other auth component may use it.
//
// All checks fail closed: invalid input yields false or an empty value and the
// caller falls back to a safe default destination.
package urlpolicy

import (
	"net/url"
	"regexp"
	"strings"
)

// DefaultDestination is where users land when no trusted target survives validation.
const DefaultDestination = "/competitions"

// maxParamValueLen caps propagated campaign values.
const maxParamValueLen = 256

// competitionIDPattern matches canonical UUID text with version 1-5 and RFC 4122 variant.
var competitionIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[1-5][0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)

// CampaignKeys are the utm_* keys recognised on inbound links.
var CampaignKeys = []string{"utm_source", "utm_medium", "utm_campaign", "utm_content", "utm_term"}

// propagatedKeys is the full allowlist of query keys carried across redirects.
var propagatedKeys = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_content":  {},
	"utm_term":     {},
	"ref":          {},
	"invite":       {},
	"share":        {},
}

// dangerousFragments cause a value to be dropped outright.
var dangerousFragments = []string{"javascript:", "data:", "vbscript:", "<script", "../"}

// IsValidRedirectURL reports whether s is a same-origin relative path: non-empty,
// starting with a single "/" and free of control characters. "/\" is rejected
// as well since browsers treat it like "//".
func IsValidRedirectURL(s string) bool {
	if s == "" || s[0] != '/' {
		return false
	}
	if len(s) > 1 && (s[1] == '/' || s[1] == '\\') {
		return false
	}
	return !hasControlChars(s)
}

// SafeRedirect returns s when it passes IsValidRedirectURL, otherwise fallback.
func SafeRedirect(s, fallback string) string {
	if IsValidRedirectURL(s) {
		return s
	}
	return fallback
}

// IsValidCompetitionID reports whether s is a canonical UUID (versions 1-5).
func IsValidCompetitionID(s string) bool {
	return competitionIDPattern.MatchString(s)
}

// IsPropagatedKey reports whether key may be carried over to another URL.
func IsPropagatedKey(key string) bool {
	_, ok := propagatedKeys[key]
	return ok
}

// IsSafeParamValue reports whether v may be propagated unchanged.
func IsSafeParamValue(v string) bool {
	if len(v) > maxParamValueLen || hasControlChars(v) {
		return false
	}
	lower := strings.ToLower(v)
	for _, frag := range dangerousFragments {
		if strings.Contains(lower, frag) {
			return false
		}
	}
	return true
}

// SanitizeCampaignParams returns the allowlisted subset of q. Keys outside the
// allowlist and unsafe values are dropped; surviving values are trimmed.
func SanitizeCampaignParams(q url.Values) url.Values {
	out := url.Values{}
	for key, values := range q {
		if !IsPropagatedKey(key) {
			continue
		}
		for _, v := range values {
			v = strings.TrimSpace(v)
			if v == "" || !IsSafeParamValue(v) {
				continue
			}
			out.Add(key, v)
		}
	}
	return out
}

// HasCampaignParams reports whether q carries any utm_* key.
func HasCampaignParams(q url.Values) bool {
	for _, key := range CampaignKeys {
		if _, ok := q[key]; ok {
			return true
		}
	}
	return false
}

func hasControlChars(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] == 0x7f {
			return true
		}
	}
	return false
}
