package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// BusinessEvents traces generation runs and the entities they create.
type BusinessEvents struct {
	tracer trace.Tracer
}

// NewBusinessEvents creates a tracer bound to the global provider.
func NewBusinessEvents() *BusinessEvents {
	return &BusinessEvents{
		tracer: otel.Tracer("threadfit/generation"),
	}
}

// TraceGenerationRun opens the span covering a whole run.
func (be *BusinessEvents) TraceGenerationRun(ctx context.Context, action string, amount int, ownerID string) (context.Context, trace.Span) {
	return be.tracer.Start(ctx, "generation.run",
		trace.WithAttributes(
			attribute.String("generation.action", action),
			attribute.Int("generation.amount", amount),
			attribute.String("generation.owner_id", ownerID),
		),
	)
}

// TraceEntityCreate opens a span for one build-and-persist step.
func (be *BusinessEvents) TraceEntityCreate(ctx context.Context, kind string, index int) (context.Context, trace.Span) {
	return be.tracer.Start(ctx, "generation.entity",
		trace.WithAttributes(
			attribute.String("entity.kind", kind),
			attribute.Int("entity.index", index),
		),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
