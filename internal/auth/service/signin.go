package service

import (
	"context"
	"time"

	"podium/internal/audit"
	"podium/internal/auth/models"
	"podium/internal/platform/tracer"
)

// SignIn checks credentials with the credential store and resolves where the
// user goes next.
func (s *Service) SignIn(ctx context.Context, nav *models.Navigation, req *models.SignInRequest) (result *models.SignInResult, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanSignIn, tracer.String(tracer.AttrFlow, models.FlowLogin.String()))
	defer func() {
		span.End(err)
		s.observeOperation("sign_in", start)
	}()

	withBodyContext(nav, req.Redirect, req.CompetitionID)

	session, err := s.creds.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		s.authFailure(ctx, nav, "sign_in_failed", err)
		return nil, err
	}

	destination := s.ResolveDestination(ctx, nav)
	s.completeSignIn(ctx, nav, session)
	s.logAudit(ctx, nav, audit.EventSignInSucceeded, "user_id", session.User.ID)

	return &models.SignInResult{User: session.User, RedirectTo: destination, Session: session}, nil
}

// SignUp registers the user. When the credential store wants the address
// confirmed first, the stored context is kept so the later sign in still
// lands on the original destination.
func (s *Service) SignUp(ctx context.Context, nav *models.Navigation, req *models.SignUpRequest) (result *models.SignInResult, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanSignUp, tracer.String(tracer.AttrFlow, models.FlowSignup.String()))
	defer func() {
		span.End(err)
		s.observeOperation("sign_up", start)
	}()

	withBodyContext(nav, req.Redirect, req.CompetitionID)
	s.incrementFlowStarted(models.FlowSignup.String(), "password")

	var metadata map[string]string
	if req.DisplayName != "" {
		metadata = map[string]string{"display_name": req.DisplayName}
	}
	session, err := s.creds.SignUp(ctx, req.Email, req.Password, metadata)
	if err != nil {
		s.authFailure(ctx, nav, "sign_up_failed", err)
		return nil, err
	}

	if session == nil || session.AccessToken == "" {
		redirect, competition := validatedContext(nav.Context)
		if err := s.persistContext(ctx, nav.SessionID, models.FlowLogin, redirect, competition); err != nil {
			s.logger.WarnContext(ctx, "failed to keep context for confirmation", "request_id", nav.RequestID, "error", err)
		}
		res := &models.SignInResult{
			RedirectTo:           BuildAuthFlowURL(models.FlowLogin, redirect, competition, nil),
			ConfirmationRequired: true,
		}
		if session != nil {
			res.User = session.User
		}
		s.logAudit(ctx, nav, audit.EventSignUpSucceeded, "user_id", res.User.ID)
		return res, nil
	}

	destination := s.ResolveDestination(ctx, nav)
	s.completeSignIn(ctx, nav, session)
	s.logAudit(ctx, nav, audit.EventSignUpSucceeded, "user_id", session.User.ID)

	return &models.SignInResult{User: session.User, RedirectTo: destination, Session: session}, nil
}

// CurrentUser returns the signed-in user for accessToken.
func (s *Service) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	return s.creds.GetUser(ctx, accessToken)
}

// Logout ends the credential store session and drops all stored context.
// A credential store failure does not stop the local sign out.
func (s *Service) Logout(ctx context.Context, nav *models.Navigation, accessToken string) (err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanSignOut)
	defer func() { span.End(err) }()

	if accessToken != "" {
		if signOutErr := s.creds.SignOut(ctx, accessToken); signOutErr != nil {
			s.logger.WarnContext(ctx, "credential store sign out failed", "request_id", nav.RequestID, "error", signOutErr)
		}
	}
	s.clearContext(ctx, nav)
	s.logAudit(ctx, nav, audit.EventSignedOut)
	return nil
}

// withBodyContext lets form fields fill in a redirect or competition the
// query string did not carry.
func withBodyContext(nav *models.Navigation, redirect, competitionID string) {
	if nav.Context.RedirectURL == "" {
		nav.Context.RedirectURL = redirect
	}
	if nav.Context.CompetitionID == "" {
		nav.Context.CompetitionID = competitionID
	}
}
