package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func setupTelemetryDisabled(t *testing.T) *Telemetry {
	t.Helper()

	tel, err := Init(context.Background(), &Config{
		Enabled:     false,
		ServiceName: "test-service",
	})
	require.NoError(t, err)
	return tel
}

func TestInit_Disabled(t *testing.T) {
	tel := setupTelemetryDisabled(t)

	assert.NotNil(t, tel)
	assert.NotNil(t, GetTracer())
	assert.NotNil(t, GetMeter())
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNewCounter_Disabled(t *testing.T) {
	setupTelemetryDisabled(t)

	counter, err := NewCounter(MetricOpts{
		Name:        "test_counter",
		Description: "A test counter",
		Unit:        "1",
	})
	require.NoError(t, err)
	assert.NotNil(t, counter)

	// Should not panic with the no-op meter
	ctx := context.Background()
	counter.Add(ctx, 5)
	counter.Inc(ctx, attribute.String("kind", "test"))
}

func TestNewGauge_Disabled(t *testing.T) {
	setupTelemetryDisabled(t)

	gauge, err := NewGauge(MetricOpts{
		Name:        "test_gauge",
		Description: "A test gauge",
		Unit:        "1",
	})
	require.NoError(t, err)
	assert.NotNil(t, gauge)

	gauge.Record(context.Background(), 42)
}

func TestNewHistogram_Disabled(t *testing.T) {
	setupTelemetryDisabled(t)

	histogram, err := NewHistogram(MetricOpts{
		Name:        "test_histogram",
		Description: "A test histogram",
		Unit:        "s",
	})
	require.NoError(t, err)
	assert.NotNil(t, histogram)

	histogram.Record(context.Background(), 0.25)
}

func TestStartSpan_Disabled(t *testing.T) {
	setupTelemetryDisabled(t)

	ctx, span := StartSpan(context.Background(), "test-span")
	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
	span.End()
}
