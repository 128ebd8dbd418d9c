package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/notaria/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attributesOf(span sdktrace.ReadOnlySpan) map[string]any {
	out := make(map[string]any, len(span.Attributes()))
	for _, kv := range span.Attributes() {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func TestStartServiceSpan(t *testing.T) {
	sr := recordSpans(t)

	ctx, span := telemetry.StartServiceSpan(context.Background(), "document", "deliver",
		telemetry.SpanAttrTrackingCode, "NOT-20250315-ABC234")
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid())
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "document.deliver", ended[0].Name())
	assert.Equal(t, trace.SpanKindInternal, ended[0].SpanKind())
	assert.Equal(t, "NOT-20250315-ABC234", attributesOf(ended[0])[telemetry.SpanAttrTrackingCode])
}

func TestSetAttributes(t *testing.T) {
	sr := recordSpans(t)

	docID := uuid.New()
	_, span := telemetry.StartServiceSpan(context.Background(), "document", "cancel")
	telemetry.SetAttributes(span,
		telemetry.SpanAttrDocumentID, docID,
		"attempt", 2,
		"manual_override", true,
		42, "skipped",
		"dangling",
	)
	telemetry.SetAttribute(span, "amount", 12.5)
	span.End()

	attrs := attributesOf(sr.Ended()[0])
	assert.Equal(t, docID.String(), attrs[telemetry.SpanAttrDocumentID])
	assert.Equal(t, int64(2), attrs["attempt"])
	assert.Equal(t, true, attrs["manual_override"])
	assert.Equal(t, 12.5, attrs["amount"])
	assert.NotContains(t, attrs, "dangling")
	assert.Len(t, attrs, 4)
}

func TestRecordErrorAndEvents(t *testing.T) {
	sr := recordSpans(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "document", "register_payment")
	telemetry.AddEvent(span, "ledger_drift", "documents", 1)
	telemetry.RecordError(span, errors.New("row locked"))
	telemetry.RecordError(span, nil)
	span.End()

	recorded := sr.Ended()[0]
	assert.Equal(t, codes.Error, recorded.Status().Code)
	assert.Equal(t, "row locked", recorded.Status().Description)
	require.Len(t, recorded.Events(), 2)
	assert.Equal(t, "ledger_drift", recorded.Events()[0].Name)
	assert.Equal(t, "exception", recorded.Events()[1].Name)
}

func TestHelpers_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "k", "v")
		telemetry.SetAttribute(nil, "k", "v")
		telemetry.RecordError(nil, errors.New("x"))
		telemetry.AddEvent(nil, "e")
	})
}
