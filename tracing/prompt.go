package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartPrompt starts the span covering one prompt round trip.
func StartPrompt(ctx context.Context, tracer trace.Tracer, sessionID string, promptLen int) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "agentpipe.prompt",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("session_id", sessionID),
		attribute.Int("prompt.length", promptLen),
	)
	return ctx, span
}

// PromptResult is what EndPrompt records about a finished prompt.
type PromptResult struct {
	Err        error
	State      string
	SessionID  string
	CostUSD    float64
	DurationMs int64
	NumTurns   int
	ToolCount  int
}

// EndPrompt records the prompt's result on span and ends it.
func EndPrompt(span trace.Span, res PromptResult) {
	defer span.End()
	span.SetAttributes(
		attribute.String("state", res.State),
		attribute.String("session_id", res.SessionID),
		attribute.Int("tool_count", res.ToolCount),
		attribute.Int("num_turns", res.NumTurns),
		attribute.Int64("duration_ms", res.DurationMs),
		attribute.Float64("cost_usd", res.CostUSD),
	)
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
		return
	}
	if res.State == "failed" {
		span.SetStatus(codes.Error, "result reported an error")
	}
}

// ToolCall records a tool invocation as an event on the prompt span.
func ToolCall(ctx context.Context, name string) {
	trace.SpanFromContext(ctx).AddEvent("tool_call", trace.WithAttributes(
		attribute.String("tool", name),
	))
}
