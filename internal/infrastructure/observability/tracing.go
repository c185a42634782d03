package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "chatcart/session-api"
)

// GetTracer returns the tracer for the session service.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSessionSpan starts a span for a conversation actor operation.
func StartSessionSpan(ctx context.Context, operation, sessionID string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "session."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("session.operation", operation),
		),
	)
}

// StartThrottleSpan starts a span for a throttle actor operation.
func StartThrottleSpan(ctx context.Context, operation, domain string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "throttle."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("throttle.domain", domain),
			attribute.String("throttle.operation", operation),
		),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddArchiveEvent notes an archival batch on a span.
func AddArchiveEvent(span trace.Span, archived int) {
	span.AddEvent("archive",
		trace.WithAttributes(attribute.Int("archive.count", archived)),
	)
}
