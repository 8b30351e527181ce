package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestEndpointHost(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"strips http prefix", "http://localhost:4318", "localhost:4318"},
		{"strips https prefix", "https://otel.example.com:4318", "otel.example.com:4318"},
		{"returns unchanged when no scheme", "localhost:4318", "localhost:4318"},
		{"handles empty string", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, endpointHost(tt.input))
		})
	}
}

func TestTracer_NoopWithoutEndpoint(t *testing.T) {
	if Enabled() {
		t.Skip("OTEL_EXPORTER_OTLP_ENDPOINT is set in this environment")
	}
	tracer := Tracer("test")
	require.NotNil(t, tracer)
	_, span := tracer.Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, Shutdown(context.Background()))
}

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	rec := tracetest.NewSpanRecorder()
	return rec, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
}

func TestPromptSpan_Success(t *testing.T) {
	t.Parallel()
	rec, tp := newRecorder()
	ctx, span := StartPrompt(context.Background(), tp.Tracer("test"), "", 5)
	ToolCall(ctx, "shell")
	EndPrompt(span, PromptResult{State: "succeeded", SessionID: "S1", ToolCount: 1, NumTurns: 2})

	spans := rec.Ended()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "agentpipe.prompt", s.Name())
	assert.Equal(t, codes.Unset, s.Status().Code)
	require.Len(t, s.Events(), 1)
	assert.Equal(t, "tool_call", s.Events()[0].Name)

	attrs := map[string]any{}
	for _, kv := range s.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "S1", attrs["session_id"])
	assert.Equal(t, int64(1), attrs["tool_count"])
	assert.Equal(t, int64(5), attrs["prompt.length"])
}

func TestPromptSpan_Error(t *testing.T) {
	t.Parallel()
	rec, tp := newRecorder()
	_, span := StartPrompt(context.Background(), tp.Tracer("test"), "S1", 1)
	EndPrompt(span, PromptResult{State: "failed", Err: errors.New("process exited unexpectedly")})

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "process exited unexpectedly", spans[0].Status().Description)
}

func TestPromptSpan_FailedResult(t *testing.T) {
	t.Parallel()
	rec, tp := newRecorder()
	_, span := StartPrompt(context.Background(), tp.Tracer("test"), "S1", 1)
	EndPrompt(span, PromptResult{State: "failed"})
	assert.Equal(t, codes.Error, rec.Ended()[0].Status().Code)
}
