package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/notaria/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap/zaptest"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		CollectorEndpoint: "localhost:4317",
		SamplingRatio:     1,
		ServiceName:       "notaria-test",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NoError(t, tp.Shutdown(ctx))

	var missing *telemetry.TracerProvider
	assert.False(t, missing.IsEnabled())
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		ExportInterval: 30 * time.Second,
		ServiceName:    "notaria-test",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("notaria.custody"))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.NoError(t, mp.Shutdown(cancelled))
}

func TestInstruments_CollectsEveryInstrument(t *testing.T) {
	in := telemetry.NewInstruments(noop.NewMeterProvider().Meter("test"))

	assert.NotNil(t, in.Counter("c", "counter", "{n}"))
	assert.NotNil(t, in.UpDownCounter("u", "updown", "{n}"))
	assert.NotNil(t, in.Gauge("g", "gauge", "{n}"))
	assert.NotNil(t, in.Histogram("h", "histogram", "s", telemetry.OperationDurationBuckets...))
	assert.NoError(t, in.Err())
}
