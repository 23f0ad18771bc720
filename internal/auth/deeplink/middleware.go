package deeplink

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"podium/internal/auth/models"
	"podium/internal/auth/urlpolicy"
)

type contextKey struct{}

// Captured is what the middleware learned about the current request.
type Captured struct {
	Data     models.DeepLinkData
	Decision models.RouteDecision
}

// FromContext returns the classification stored by Capture.
func FromContext(ctx context.Context) (Captured, bool) {
	c, ok := ctx.Value(contextKey{}).(Captured)
	return c, ok
}

// Recorder persists the deep link of a visitor who is not signed in so the
// auth flow can send them back to it.
type Recorder interface {
	RememberDeepLink(ctx context.Context, sessionID string, data models.DeepLinkData, target string) error
}

// Observer counts classifications.
type Observer interface {
	ObserveDeepLink(source, action string, redirected bool)
}

// IdentityFunc resolves the browser session of a request and whether a user
// is signed in on it.
type IdentityFunc func(r *http.Request) (sessionID string, signedIn bool)

type captureConfig struct {
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
}

type CaptureOption func(*captureConfig)

func WithLogger(logger *slog.Logger) CaptureOption {
	return func(c *captureConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithObserver(o Observer) CaptureOption {
	return func(c *captureConfig) {
		c.observer = o
	}
}

func WithClock(now func() time.Time) CaptureOption {
	return func(c *captureConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// Capture classifies GET and HEAD navigations, remembers competition deep
// links for anonymous visitors and issues the canonical redirect when the
// router proposes one.
func Capture(identity IdentityFunc, recorder Recorder, opts ...CaptureOption) func(http.Handler) http.Handler {
	cfg := &captureConfig{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			data := Classify(Request{
				Path:      r.URL.Path,
				Query:     r.URL.Query(),
				UserAgent: r.UserAgent(),
				Referrer:  r.Referer(),
			}, cfg.now())
			decision := Route(data, r.URL.Path)

			if cfg.observer != nil && data.IsDeepLink {
				cfg.observer.ObserveDeepLink(data.Source.String(), data.Action.String(), decision.ShouldRedirect)
			}

			if data.IsDeepLink && data.HasCompetition() && recorder != nil && identity != nil {
				sessionID, signedIn := identity(r)
				if sessionID != "" && !signedIn {
					target := decision.Target
					if target == "" {
						target = CompetitionPath(data.CompetitionSlug, data.Action)
					}
					if err := recorder.RememberDeepLink(ctx, sessionID, data, target); err != nil {
						cfg.logger.WarnContext(ctx, "failed to remember deep link",
							"source", data.Source.String(),
							"action", data.Action.String(),
							"error", err,
						)
					}
				}
			}

			if decision.ShouldRedirect && urlpolicy.IsValidRedirectURL(decision.Target) {
				http.Redirect(w, r, decision.Target, http.StatusFound)
				return
			}

			ctx = context.WithValue(ctx, contextKey{}, Captured{Data: data, Decision: decision})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
