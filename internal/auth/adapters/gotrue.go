package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"podium/internal/auth/models"
	dErrors "podium/pkg/domain-errors"
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// GoTrueConfig configures a GoTrue-compatible credential store client.
type GoTrueConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient HTTPDoer
	// Providers are the OAuth clients whose codes are exchanged for an ID
	// token before the credential store sees them.
	Providers map[string]*oauth2.Config
}

// GoTrueClient talks to a GoTrue (Supabase Auth) compatible REST API.
// Failures carry domain codes; the backend's own message is kept as the root
// cause so it can be mapped to user-facing text.
type GoTrueClient struct {
	baseURL   string
	apiKey    string
	client    HTTPDoer
	providers map[string]*oauth2.Config
}

func NewGoTrueClient(cfg GoTrueConfig) *GoTrueClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &GoTrueClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		client:    client,
		providers: cfg.Providers,
	}
}

type gotrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type gotrueSession struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
	ExpiresAt   int64       `json:"expires_at"`
	User        *gotrueUser `json:"user"`
	// Signup without auto-confirm returns the bare user.
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (s gotrueSession) toModel(now time.Time) *models.AuthSession {
	out := &models.AuthSession{AccessToken: s.AccessToken}
	if s.User != nil {
		out.User = models.User{ID: s.User.ID, Email: s.User.Email}
	} else {
		out.User = models.User{ID: s.ID, Email: s.Email}
	}
	switch {
	case s.ExpiresAt > 0:
		out.ExpiresAt = time.Unix(s.ExpiresAt, 0).UTC()
	case s.ExpiresIn > 0:
		out.ExpiresAt = now.Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return out
}

type gotrueError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e gotrueError) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (c *GoTrueClient) SignInWithPassword(ctx context.Context, email, password string) (*models.AuthSession, error) {
	var out gotrueSession
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", body, &out); err != nil {
		return nil, err
	}
	return out.toModel(time.Now()), nil
}

func (c *GoTrueClient) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*models.AuthSession, error) {
	var out gotrueSession
	body := map[string]any{"email": email, "password": password}
	if len(metadata) > 0 {
		body["data"] = metadata
	}
	if err := c.do(ctx, http.MethodPost, "/signup", "", body, &out); err != nil {
		return nil, err
	}
	return out.toModel(time.Now()), nil
}

func (c *GoTrueClient) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	path := "/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	return c.do(ctx, http.MethodPost, path, "", map[string]string{"email": email}, nil)
}

func (c *GoTrueClient) VerifyRecoveryToken(ctx context.Context, token string) (*models.AuthSession, error) {
	var out gotrueSession
	body := map[string]string{"type": "recovery", "token_hash": token}
	if err := c.do(ctx, http.MethodPost, "/verify", "", body, &out); err != nil {
		return nil, err
	}
	return out.toModel(time.Now()), nil
}

func (c *GoTrueClient) UpdateUser(ctx context.Context, accessToken string, attrs models.UserAttributes) error {
	return c.do(ctx, http.MethodPut, "/user", accessToken, attrs, nil)
}

func (c *GoTrueClient) GetUser(ctx context.Context, accessToken string) (*models.User, error) {
	var out gotrueUser
	if err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &models.User{ID: out.ID, Email: out.Email}, nil
}

func (c *GoTrueClient) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

// ExchangeCodeForSession redeems the provider code for an ID token and signs
// in with it.
func (c *GoTrueClient) ExchangeCodeForSession(ctx context.Context, provider, code, redirectURI string) (*models.AuthSession, error) {
	cfg, ok := c.providers[provider]
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown oauth provider")
	}
	exchange := *cfg
	exchange.RedirectURL = redirectURI
	if hc, ok := c.client.(*http.Client); ok {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)
	}
	token, err := exchange.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			text := re.ErrorDescription
			if text == "" {
				text = re.ErrorCode
			}
			return nil, dErrors.Wrap(errors.New(text), dErrors.CodeUnauthorized, "provider rejected the authorization code")
		}
		return nil, transportError(ctx, err)
	}
	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "provider returned no id token")
	}

	var out gotrueSession
	body := map[string]string{"provider": provider, "id_token": idToken}
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=id_token", "", body, &out); err != nil {
		return nil, err
	}
	return out.toModel(time.Now()), nil
}

func (c *GoTrueClient) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode credential store request")
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create credential store request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return transportError(ctx, err)
	}
	if resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnknown, "failed to decode credential store response")
	}
	return nil
}

func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "credential store timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeNetwork, "credential store unreachable")
}

// statusError tags a non-2xx reply. The backend text becomes the root cause.
func statusError(status int, raw []byte) error {
	var ge gotrueError
	_ = json.Unmarshal(raw, &ge)
	text := ge.text()
	if text == "" {
		text = http.StatusText(status)
	}
	cause := errors.New(text)
	msg := fmt.Sprintf("credential store returned %d", status)

	switch ge.ErrorCode {
	case "otp_expired", "flow_state_expired":
		return dErrors.Wrap(cause, dErrors.CodeExpiredToken, msg)
	case "weak_password":
		return dErrors.Wrap(cause, dErrors.CodeWeakPassword, msg)
	case "bad_jwt", "session_not_found", "otp_disabled":
		return dErrors.Wrap(cause, dErrors.CodeInvalidToken, msg)
	}
	switch {
	case status == http.StatusBadGateway || status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout:
		return dErrors.Wrap(cause, dErrors.CodeNetwork, msg)
	case status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusBadRequest:
		return dErrors.Wrap(cause, dErrors.CodeUnauthorized, msg)
	default:
		return dErrors.Wrap(cause, dErrors.CodeUnknown, msg)
	}
}
