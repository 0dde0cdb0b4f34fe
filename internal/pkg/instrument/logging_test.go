package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		out = append(out, m)
	}
	return out
}

func TestNewLogger_MasksAndCorrelation(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&Config{
		ServiceName: "queuesend",
		LogLevel:    "debug",
		LogWriter:   &buf,
		MaskFields:  []string{"token"},
	}, nil)

	ctx := SetCorrelationID(context.Background(), "cid-1")
	logger.InfoContext(ctx, "publishing",
		"connection_string", "Endpoint=sb://ns/;SharedAccessKey=abc",
		"token", "t0p",
		"body", `{"password":"p","id":1}`,
		"queue", "orders",
	)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	line := lines[0]

	assert.Equal(t, "publishing", line["msg"])
	assert.Equal(t, "INFO", line["severity"])
	assert.Contains(t, line, "ts")
	assert.Equal(t, "***", line["connection_string"])
	assert.Equal(t, "***", line["token"])
	assert.JSONEq(t, `{"password":"***","id":1}`, line["body"].(string))
	assert.Equal(t, "orders", line["queue"])
	assert.Equal(t, "cid-1", line["_cID"])
	assert.Equal(t, "queuesend", line["service"])
}

func TestNewLogger_Level(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		want  int
	}{
		{level: "", want: 1},
		{level: "warn", want: 1},
		{level: "error", want: 0},
		{level: "DEBUG", want: 3},
		{level: "bogus", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewLogger(&Config{LogLevel: tt.level, LogWriter: &buf}, nil)
			logger.Debug("d")
			logger.Info("i")
			logger.Warn("w")

			assert.Len(t, decodeLines(t, &buf), tt.want)
		})
	}
}

func TestNewLogger_WithAttrsMasked(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&Config{LogWriter: &buf}, nil).
		With(slog.String("connection_string", "secret")).
		WithGroup("broker")
	logger.Warn("connect failed", "password", "x", "host", "ns")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "***", lines[0]["connection_string"])

	group, ok := lines[0]["broker"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "***", group["password"])
	assert.Equal(t, "ns", group["host"])
}

func TestCorrelationID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Empty(t, GetCorrelationID(ctx))
	assert.Equal(t, ctx, SetCorrelationID(ctx, ""))
	assert.Equal(t, "abc", GetCorrelationID(SetCorrelationID(ctx, "abc")))
}

func TestNew_DisabledIsNoop(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	ins, err := New(context.Background(), &Config{LogWriter: &buf})
	require.NoError(t, err)

	_, span := ins.Tracer("test").Start(context.Background(), "op")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	counter, err := ins.Meter("test").Int64Counter("c")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	assert.NoError(t, ins.Shutdown(context.Background()))
}
