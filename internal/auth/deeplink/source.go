package deeplink

import (
	"net/url"
	"strings"

	"github.com/mssola/useragent"

	"podium/internal/auth/models"
)

var utmSourceVocabulary = map[string]models.Source{
	"facebook":   models.SourceSocial,
	"fb":         models.SourceSocial,
	"instagram":  models.SourceSocial,
	"ig":         models.SourceSocial,
	"twitter":    models.SourceSocial,
	"x":          models.SourceSocial,
	"tiktok":     models.SourceSocial,
	"linkedin":   models.SourceSocial,
	"youtube":    models.SourceSocial,
	"reddit":     models.SourceSocial,
	"whatsapp":   models.SourceSocial,
	"strava":     models.SourceSocial,
	"threads":    models.SourceSocial,
	"social":     models.SourceSocial,
	"email":      models.SourceEmail,
	"newsletter": models.SourceEmail,
	"mailchimp":  models.SourceEmail,
	"sendgrid":   models.SourceEmail,
	"direct":     models.SourceDirect,
	"qr":         models.SourceDirect,
}

var socialDomains = []string{
	"facebook.com",
	"fb.com",
	"instagram.com",
	"twitter.com",
	"x.com",
	"t.co",
	"tiktok.com",
	"linkedin.com",
	"lnkd.in",
	"youtube.com",
	"reddit.com",
	"whatsapp.com",
	"strava.com",
	"threads.net",
}

// socialClickIDs are only ever appended by social platforms.
var socialClickIDs = []string{"fbclid", "twclid"}

// DetermineSource decides where traffic came from. Campaign tags win over
// click ids, which win over the referrer, which wins over the device.
func DetermineSource(query url.Values, userAgent, referrer string) models.Source {
	if src, ok := utmSourceVocabulary[strings.ToLower(strings.TrimSpace(query.Get(models.ParamUTMSource)))]; ok {
		return src
	}
	if strings.EqualFold(strings.TrimSpace(query.Get(models.ParamUTMMedium)), "email") {
		return models.SourceEmail
	}
	for _, key := range socialClickIDs {
		if query.Has(key) {
			return models.SourceSocial
		}
	}
	if isSocialReferrer(referrer) {
		return models.SourceSocial
	}
	if referrer == "" && userAgent != "" && useragent.New(userAgent).Mobile() {
		return models.SourceMobile
	}
	return models.SourceWeb
}

func isSocialReferrer(referrer string) bool {
	if referrer == "" {
		return false
	}
	u, err := url.Parse(referrer)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, domain := range socialDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
