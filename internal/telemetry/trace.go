package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan creates a new span for a service operation.
// This is a convenience wrapper around otel.Tracer().Start() with common patterns.
//
// Usage in services:
//
//	ctx, span := telemetry.StartSpan(ctx, TracerIAM, "iam.LoginBearer",
//	    attribute.String(telemetry.AttrUsername, creds.Username),
//	)
//	defer span.End()
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// RecordError records an error on the span and sets the span status to error.
// This is a convenience wrapper to ensure consistent error recording.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// AddEvent adds a named event to the span with optional attributes.
// Use for business events such as a rejected credential.
//
// Example:
//
//	telemetry.AddEvent(span, "authentication.degraded",
//	    attribute.String("method", "bearer"),
//	)
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// Tracer names
const (
	TracerIAM = "authgate/services/iam"
)

// Common attribute keys for authgate services
const (
	AttrPrincipalSubject = "principal.subject"
	AttrPrincipalRoles   = "principal.roles"
	AttrAuthMethod       = "auth.method"
	AttrAuthResult       = "auth.result"
	AttrUsername         = "auth.username"
)
