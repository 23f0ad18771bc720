package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"podium/internal/auth/deeplink"
	"podium/internal/auth/models"
	"podium/internal/auth/service"
	"podium/internal/auth/session"
	"podium/internal/auth/urlpolicy"
	"podium/internal/platform/middleware"
	dErrors "podium/pkg/domain-errors"
	"podium/pkg/platform/httputil"
)

// Service defines the auth flow operations the handlers drive.
type Service interface {
	PrepareFlow(ctx context.Context, nav *models.Navigation, flow models.Flow) (*models.FlowView, error)
	ResolveDestination(ctx context.Context, nav *models.Navigation) string
	SignIn(ctx context.Context, nav *models.Navigation, req *models.SignInRequest) (*models.SignInResult, error)
	SignUp(ctx context.Context, nav *models.Navigation, req *models.SignUpRequest) (*models.SignInResult, error)
	CurrentUser(ctx context.Context, accessToken string) (*models.User, error)
	Logout(ctx context.Context, nav *models.Navigation, accessToken string) error
	BuildOAuthURL(ctx context.Context, nav *models.Navigation, provider, redirect, competitionID string) (*models.OAuthURL, error)
	HandleOAuthCallback(ctx context.Context, nav *models.Navigation, provider, code string) (*models.SignInResult, error)
	ResetStatus(ctx context.Context, nav *models.Navigation) (*models.ResetStatus, error)
	RequestReset(ctx context.Context, nav *models.Navigation, email string) (*models.ResetStatus, error)
	ResendReset(ctx context.Context, nav *models.Navigation) (*models.ResetStatus, error)
	VerifyResetToken(ctx context.Context, nav *models.Navigation, token string) (*models.ResetStatus, error)
	SubmitNewPassword(ctx context.Context, nav *models.Navigation, req *models.NewPasswordRequest) (*models.ResetStatus, error)
	CompleteReset(ctx context.Context, nav *models.Navigation) (*models.ResetStatus, error)
}

// Sessions writes the browser session cookie.
type Sessions interface {
	SignIn(w http.ResponseWriter, r *http.Request, s *models.AuthSession) error
	SignOut(w http.ResponseWriter) error
}

// Handler serves the login, signup, OAuth and password reset endpoints.
// The browser session middleware must run before it.
type Handler struct {
	auth     Service
	sessions Sessions
	logger   *slog.Logger
}

// New creates a new auth Handler.
func New(auth Service, sessions Sessions, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{auth: auth, sessions: sessions, logger: logger}
}

// Register registers the auth routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/auth/login", h.flowPage(models.FlowLogin))
	r.Get("/auth/signup", h.flowPage(models.FlowSignup))
	r.Get("/auth/reset", h.HandleResetPage)
	r.Post("/auth/login", h.HandleSignIn)
	r.Post("/auth/signup", h.HandleSignUp)
	r.Get("/auth/oauth/{provider}", h.HandleOAuthStart)
	r.Get("/auth/callback/{provider}", h.HandleOAuthCallback)
	r.Post("/auth/reset/request", h.HandleResetRequest)
	r.Post("/auth/reset/resend", h.HandleResetResend)
	r.Post("/auth/reset/password", h.HandleResetPassword)
	r.Post("/auth/reset/complete", h.HandleResetComplete)
	r.Post("/auth/logout", h.HandleLogout)
	r.Get("/auth/destination", h.HandleDestination)
}

// flowPage stores the navigation's validated context and returns what the
// login or signup page needs.
func (h *Handler) flowPage(flow models.Flow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		nav, ok := h.navigation(w, r)
		if !ok {
			return
		}

		view, err := h.auth.PrepareFlow(ctx, nav, flow)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to prepare auth flow",
				"flow", flow.String(),
				"error", err,
				"request_id", nav.RequestID,
			)
			h.writeError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, view)
	}
}

// HandleResetPage implements GET /auth/reset. With a token parameter it is
// the landing page of the reset email and verifies the token first.
func (h *Handler) HandleResetPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nav, ok := h.navigation(w, r)
	if !ok {
		return
	}

	var (
		status *models.ResetStatus
		err    error
	)
	if token := r.URL.Query().Get(models.ParamToken); token != "" {
		status, err = h.auth.VerifyResetToken(ctx, nav, token)
	} else {
		status, err = h.auth.ResetStatus(ctx, nav)
	}
	if err != nil && status == nil {
		h.logger.ErrorContext(ctx, "failed to load password reset", "error", err, "request_id", nav.RequestID)
		h.writeError(w, err)
		return
	}

	view, viewErr := h.auth.PrepareFlow(ctx, nav, models.FlowReset)
	if viewErr != nil {
		h.logger.ErrorContext(ctx, "failed to prepare reset flow", "error", viewErr, "request_id", nav.RequestID)
		h.writeError(w, viewErr)
		return
	}

	code := http.StatusOK
	if err != nil {
		h.logger.WarnContext(ctx, "reset token rejected", "kind", service.ErrorKind(err), "request_id", nav.RequestID)
		code = httputil.DomainCodeToHTTPStatus(dErrors.CodeOf(err))
	}
	httputil.WriteJSON(w, code, &models.ResetPage{FlowView: view, Reset: status})
}

// HandleSignIn implements POST /auth/login.
//
// Input: { "email": "...", "password": "...", "redirect": "/competitions/x/enter" }
// Output: { "user": {...}, "redirect_to": "/competitions/x/enter" } plus the session cookie.
func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nav, ok := h.navigation(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.SignInRequest](w, r, h.logger, ctx, nav.RequestID)
	if !ok {
		return
	}

	res, err := h.auth.SignIn(ctx, nav, req)
	if err != nil {
		h.logger.WarnContext(ctx, "sign in failed", "kind", service.ErrorKind(err), "request_id", nav.RequestID)
		h.writeError(w, err)
		return
	}
	if !h.startSession(w, r, nav, res) {
		return
	}

	h.logger.InfoContext(ctx, "sign in successful", "request_id", nav.RequestID, "user_id", res.User.ID)
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleSignUp implements POST /auth/signup. When the address must be
// confirmed first the response is 202 and no session cookie is written.
func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nav, ok := h.navigation(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.SignUpRequest](w, r, h.logger, ctx, nav.RequestID)
	if !ok {
		return
	}

	res, err := h.auth.SignUp(ctx, nav, req)
	if err != nil {
		h.logger.WarnContext(ctx, "sign up failed", "kind", service.ErrorKind(err), "request_id", nav.RequestID)
		h.writeError(w, err)
		return
	}
	if res.ConfirmationRequired {
		httputil.WriteJSON(w, http.StatusAccepted, res)
		return
	}
	if !h.startSession(w, r, nav, res) {
		return
	}

	h.logger.InfoContext(ctx, "sign up successful", "request_id", nav.RequestID, "user_id", res.User.ID)
	httputil.WriteJSON(w, http.StatusCreated, res)
}

// HandleOAuthStart implements GET /auth/oauth/{provider}: it stores the
// context and redirects to the provider.
func (h *Handler) HandleOAuthStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nav, ok := h.navigation(w, r)
	if !ok {
		return
	}
	provider := chi.URLParam(r, "provider")

	res, err := h.auth.BuildOAuthURL(ctx, nav, provider, nav.Context.RedirectURL, nav.Context.CompetitionID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to start oauth",
			"provider", provider,
			"error", err,
			"request_id", nav.RequestID,
		)
		h.writeError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, res.URL, http.StatusFound)
}

// HandleOAuthCallback implements GET /auth/callback/{provider}. Both outcomes
// are redirects: to the resolved destination, or back to the login page with
// an error kind.
func (h *Handler) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nav, ok := h.navigation(w, r)
	if !ok {
		return
	}
	provider := chi.URLParam(r, "provider")

	res, err := h.auth.HandleOAuthCallback(ctx, nav, provider, r.URL.Query().Get(models.ParamCode))
	if err != nil {
		h.logger.WarnContext(ctx, "oauth callback failed",
			"provider", provider,
			"kind", service.ErrorKind(err),
			"request_id", nav.RequestID,
		)
		target := models.PathLogin
		if res != nil {
			target = res.RedirectTo
		}
		h.redirect(w, r, target)
		return
	}

	if err := h.sessions.SignIn(w, r, res.Session); err != nil {
		h.logger.ErrorContext(ctx, "failed to write session cookie", "error", err, "request_id", nav.RequestID)
		h.redirect(w, r, urlpolicy.WithQuery(models.PathLogin, url.Values{models.ParamError: {service.ErrorKind(err)}}))
		return
	}

	h.logger.InfoContext(ctx, "oauth sign in successful",
		"provider", provider,
		"request_id", nav.RequestID,
		"user_id", res.User.ID,
	)
	h.redirect(w, r, res.RedirectTo)
}

// HandleResetRequest implements POST /auth/reset/request.
func (h *Handler) HandleResetRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nav, ok := h.navigation(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.ResetRequest](w, r, h.logger, ctx, nav.RequestID)
	if !ok {
		return
	}

	status, err := h.auth.RequestReset(ctx, nav, req.Email)
	h.writeReset(ctx, w, nav, "request", status, err)
}

// HandleResetResend implements POST /auth/reset/resend.
func (h *Handler) HandleResetResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nav, ok := h.navigation(w, r)
	if !ok {
		return
	}

	status, err := h.auth.ResendReset(ctx, nav)
	h.writeReset(ctx, w, nav, "resend", status, err)
}

// HandleResetPassword implements POST /auth/reset/password. Complexity and
// confirmation failures come back as field errors with a 422.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nav, ok := h.navigation(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.NewPasswordRequest](w, r, h.logger, ctx, nav.RequestID)
	if !ok {
		return
	}

	status, err := h.auth.SubmitNewPassword(ctx, nav, req)
	h.writeReset(ctx, w, nav, "password", status, err)
}

// HandleResetComplete implements POST /auth/reset/complete.
func (h *Handler) HandleResetComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nav, ok := h.navigation(w, r)
	if !ok {
		return
	}

	status, err := h.auth.CompleteReset(ctx, nav)
	h.writeReset(ctx, w, nav, "complete", status, err)
}

// HandleLogout implements POST /auth/logout. The cookie is replaced by a new
// anonymous session, so the old session id's context is unreachable.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nav, ok := h.navigation(w, r)
	if !ok {
		return
	}

	var accessToken string
	if claims, ok := session.FromContext(ctx); ok {
		accessToken = claims.AccessToken
	}
	if err := h.auth.Logout(ctx, nav, accessToken); err != nil {
		h.logger.ErrorContext(ctx, "logout failed", "error", err, "request_id", nav.RequestID)
		h.writeError(w, err)
		return
	}
	if err := h.sessions.SignOut(w); err != nil {
		h.logger.ErrorContext(ctx, "failed to reset session cookie", "error", err, "request_id", nav.RequestID)
		h.writeError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &models.DestinationResult{RedirectTo: models.PathLogin})
}

// HandleDestination implements GET /auth/destination: where the client
// should go now, and who is signed in. A session whose token the credential
// store no longer accepts is signed out.
func (h *Handler) HandleDestination(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nav, ok := h.navigation(w, r)
	if !ok {
		return
	}

	info := &models.UserInfo{}
	if claims, ok := session.FromContext(ctx); ok && claims.SignedIn() {
		user, err := h.auth.CurrentUser(ctx, claims.AccessToken)
		switch {
		case err == nil:
			info.SignedIn = true
			info.User = user
		case dErrors.HasCode(err, dErrors.CodeUnauthorized), dErrors.HasCode(err, dErrors.CodeInvalidToken):
			h.logger.InfoContext(ctx, "session no longer valid", "request_id", nav.RequestID)
			if err := h.sessions.SignOut(w); err != nil {
				h.logger.ErrorContext(ctx, "failed to reset session cookie", "error", err, "request_id", nav.RequestID)
			}
		default:
			h.logger.WarnContext(ctx, "failed to load current user", "kind", service.ErrorKind(err), "request_id", nav.RequestID)
			info.SignedIn = true
		}
	}
	info.RedirectTo = h.auth.ResolveDestination(ctx, nav)

	httputil.WriteJSON(w, http.StatusOK, info)
}

// navigation builds the per-request context the service works on.
func (h *Handler) navigation(w http.ResponseWriter, r *http.Request) (*models.Navigation, bool) {
	ctx := r.Context()
	nav := &models.Navigation{
		SessionID: session.SessionID(ctx),
		RequestID: middleware.GetRequestID(ctx),
		Context:   models.AuthURLContextFromQuery(r.URL.Query()),
		Now:       middleware.RequestTimeFrom(ctx),
	}
	if nav.SessionID == "" {
		h.logger.ErrorContext(ctx, "request reached auth handler without a browser session", "request_id", nav.RequestID)
		h.writeError(w, dErrors.New(dErrors.CodeInternal, "browser session missing"))
		return nil, false
	}
	if captured, ok := deeplink.FromContext(ctx); ok && captured.Data.IsDeepLink {
		data := captured.Data
		nav.DeepLink = &data
	}
	return nav, true
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, nav *models.Navigation, res *models.SignInResult) bool {
	if err := h.sessions.SignIn(w, r, res.Session); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write session cookie", "error", err, "request_id", nav.RequestID)
		h.writeError(w, err)
		return false
	}
	return true
}

// writeReset answers a reset step. A failed step that still has a status is
// reported with the status body so the page can show field errors.
func (h *Handler) writeReset(ctx context.Context, w http.ResponseWriter, nav *models.Navigation, step string, status *models.ResetStatus, err error) {
	if err == nil {
		httputil.WriteJSON(w, http.StatusOK, status)
		return
	}
	h.logger.WarnContext(ctx, "password reset step failed",
		"step", step,
		"kind", service.ErrorKind(err),
		"request_id", nav.RequestID,
	)
	if status == nil {
		h.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, httputil.DomainCodeToHTTPStatus(dErrors.CodeOf(err)), status)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	httputil.WriteErrorMessage(w, err, service.UserMessage)
}

// redirect sends the browser to a same-origin path, or the login page when
// target is not one.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, target string) {
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, urlpolicy.SafeRedirect(target, models.PathLogin), http.StatusFound)
}
