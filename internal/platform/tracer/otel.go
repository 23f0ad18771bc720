package tracer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "podium/pkg/domain-errors"
)

const instrumentationName = "podium/auth"

// OTelTracer opens auth spans on an OpenTelemetry tracer, the global
// provider's unless one is injected.
type OTelTracer struct {
	tracer trace.Tracer
}

type OTelOption func(*OTelTracer)

func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(o *OTelTracer) {
		if tp != nil {
			o.tracer = tp.Tracer(instrumentationName)
		}
	}
}

func NewOTel(opts ...OTelOption) *OTelTracer {
	t := &OTelTracer{tracer: otel.Tracer(instrumentationName)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *OTelTracer) Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	return ctx, authSpan{span}
}

type authSpan struct {
	trace.Span
}

// End marks a failed span with the domain error code only. Credential store
// errors can carry backend text, so the message never reaches the exporter.
func (s authSpan) End(err error) {
	if err != nil {
		code := string(dErrors.CodeOf(err))
		s.Span.SetAttributes(String(AttrErrorCode, code))
		s.Span.SetStatus(codes.Error, code)
	} else {
		s.Span.SetStatus(codes.Ok, "")
	}
	s.Span.End()
}

func (s authSpan) AddEvent(name string, attrs ...Attribute) {
	s.Span.AddEvent(name, trace.WithAttributes(attrs...))
}

var (
	_ Tracer = (*OTelTracer)(nil)
	_ Span   = authSpan{}
)
