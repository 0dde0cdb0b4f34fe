package instrument

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func TestSampleRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want float64
	}{
		{in: -0.5, want: 0},
		{in: 0, want: 0},
		{in: 0.25, want: 0.25},
		{in: 3, want: 1},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, sampleRatio(&Config{TraceSampleRatio: tt.in}), 1e-9)
	}
}

func TestMetricsInterval(t *testing.T) {
	t.Parallel()

	assert.Equal(t, defaultMetricsInterval, metricsInterval(&Config{}))
	assert.Equal(t, defaultMetricsInterval, metricsInterval(&Config{MetricsInterval: -time.Second}))
	assert.Equal(t, 2*time.Second, metricsInterval(&Config{MetricsInterval: 2 * time.Second}))
}

func TestNewResource(t *testing.T) {
	t.Parallel()

	res, err := newResource(context.Background(), &Config{ServiceVersion: "1.2.3", Environment: "int"})
	require.NoError(t, err)

	name, ok := res.Set().Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, defaultServiceName, name.AsString())

	version, ok := res.Set().Value(semconv.ServiceVersionKey)
	require.True(t, ok)
	assert.Equal(t, "1.2.3", version.AsString())
}

func TestNewNoop(t *testing.T) {
	t.Parallel()

	ins := NewNoop()
	ctx, span := ins.Tracer("test").Start(context.Background(), "op")
	span.End()

	assert.False(t, span.SpanContext().IsValid())
	counter, err := ins.Meter("test").Int64Counter("c")
	require.NoError(t, err)
	counter.Add(ctx, 1)
	assert.NoError(t, ins.Shutdown(ctx))
}
