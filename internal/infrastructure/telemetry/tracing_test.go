package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "financing.create")
	require.NotNil(t, span)
	require.NotNil(t, ctx)
	span.End()
}

func TestStartServiceSpan(t *testing.T) {
	ctx, span := StartServiceSpan(context.Background(), "financing", "apply_correction",
		WithAttribute(SpanAttrContractNumber, "FIN-1"))
	require.NotNil(t, span)
	require.NotNil(t, ctx)
	span.End()
}

func TestRecordError_NilSafe(t *testing.T) {
	// must not panic on nil span or nil error
	RecordError(nil, errors.New("boom"))

	_, span := StartSpan(context.Background(), "test")
	RecordError(span, nil)
	RecordError(span, errors.New("boom"))
	span.End()
}

func TestGetTraceID_NoActiveSpan(t *testing.T) {
	assert.Equal(t, "", GetTraceID(context.Background()))
	assert.Equal(t, "", GetSpanID(context.Background()))
}

func TestToAttribute(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected attribute.KeyValue
	}{
		{"string", "abc", attribute.String("k", "abc")},
		{"int", 42, attribute.Int("k", 42)},
		{"int64", int64(42), attribute.Int64("k", 42)},
		{"float64", 1.5, attribute.Float64("k", 1.5)},
		{"bool", true, attribute.Bool("k", true)},
		{"fallback", struct{}{}, attribute.String("k", "{}")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, toAttribute("k", tt.value))
		})
	}
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NoError(t, tp.Shutdown(context.Background()))
	assert.NoError(t, tp.ForceFlush(context.Background()))
}
