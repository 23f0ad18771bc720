// Package tracer is a small tracing seam over OpenTelemetry so auth code can
// open spans without importing the SDK everywhere. Tests use NoopTracer.
package tracer

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to a span.
type Attribute = attribute.KeyValue

func String(key, value string) Attribute { return attribute.String(key, value) }

func Bool(key string, value bool) Attribute { return attribute.Bool(key, value) }

func Int64(key string, value int64) Attribute { return attribute.Int64(key, value) }

// Span names for the auth flows.
const (
	SpanBuildOAuthURL = "auth.oauth.build_url"
	SpanOAuthCallback = "auth.oauth.callback"
	SpanSignIn        = "auth.sign_in"
	SpanSignUp        = "auth.sign_up"
	SpanResetRequest  = "auth.reset.request"
	SpanResetVerify   = "auth.reset.verify"
	SpanResetPassword = "auth.reset.password"
	SpanSignOut       = "auth.sign_out"
	SpanContextSweep  = "auth.context.sweep"
)

// Attribute keys.
const (
	AttrProvider   = "auth.provider"
	AttrFlow       = "auth.flow"
	AttrResetState = "auth.reset.state"
	AttrOutcome    = "auth.outcome"
	AttrDeleted    = "auth.context.deleted"
	AttrErrorCode  = "auth.error_code"
)
