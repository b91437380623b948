package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "promptforge"

// StartCommitSpan starts a span for a version commit.
func StartCommitSpan(ctx context.Context, promptID, branch string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "commit",
		trace.WithAttributes(
			attribute.String("prompt.id", promptID),
			attribute.String("prompt.branch", branch),
		),
	)
}

// StartResolveSpan starts a span for a role composition.
func StartResolveSpan(ctx context.Context, promptID, role string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "resolve",
		trace.WithAttributes(
			attribute.String("prompt.id", promptID),
			attribute.String("resolve.role", role),
		),
	)
}
