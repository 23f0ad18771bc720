// Package httptransport assembles the public HTTP surface: middleware chain,
// auth routes, health probes and the metrics endpoint.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"podium/internal/auth/deeplink"
	authhandler "podium/internal/auth/handler"
	"podium/internal/platform/health"
	"podium/internal/platform/middleware"
)

// SessionMiddleware establishes the browser session before deep links are
// captured.
type SessionMiddleware interface {
	Middleware(next http.Handler) http.Handler
	Identity(r *http.Request) (sessionID string, signedIn bool)
}

type RouterConfig struct {
	Logger         *slog.Logger
	Auth           *authhandler.Handler
	Sessions       SessionMiddleware
	DeepLinks      deeplink.Recorder
	DeepLinkStats  deeplink.Observer
	Health         *health.Handler
	HTTPMetrics    middleware.RequestObserver
	MetricsHandler http.Handler
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// NewRouter wires every public endpoint. Probes and /metrics sit outside the
// session and deep-link middleware so they never mint cookies.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 64 << 10
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(cfg.Logger))
	if cfg.HTTPMetrics != nil {
		r.Use(middleware.Latency(cfg.HTTPMetrics))
	}

	if cfg.Health != nil {
		cfg.Health.Register(r)
	}
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
		r.Use(middleware.Timeout(cfg.RequestTimeout))
		r.Use(middleware.ContentTypeJSON)
		r.Use(cfg.Sessions.Middleware)
		r.Use(deeplink.Capture(cfg.Sessions.Identity, cfg.DeepLinks,
			deeplink.WithObserver(cfg.DeepLinkStats),
			deeplink.WithLogger(cfg.Logger),
		))

		cfg.Auth.Register(r)
		// Competition pages live in the web app; this service only captures
		// the deep link and sends anonymous visitors to sign in.
		r.NotFound(notFound)
	})

	return r
}

func notFound(w http.ResponseWriter, r *http.Request) {
	if c, ok := deeplink.FromContext(r.Context()); ok && c.Data.IsDeepLink && c.Data.HasCompetition() {
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return
	}
	http.NotFound(w, r)
}
