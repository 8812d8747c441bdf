package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger_AddsServiceMetadata(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{
		Level:       "info",
		Format:      "json",
		Output:      &buf,
		ServiceName: "atendimento-dashboard",
		Environment: "test",
	})

	logger.Info("hello", "key", "value")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "atendimento-dashboard", entry["service"])
	assert.Equal(t, "test", entry["environment"])
	assert.Equal(t, "value", entry["key"])
	assert.NotContains(t, entry, "request_id")
}

func TestNewLogger_ContextValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Level: "debug", Output: &buf})

	ctx := WithSessionID(WithRequestID(context.Background(), "req-1"), "sess-1")
	logger.With("component", "test").InfoContext(ctx, "with context")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "sess-1", entry["session_id"])
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, "req-1", GetRequestID(ctx))
}

func TestNewLogger_Level(t *testing.T) {
	tests := []struct {
		level    string
		logDebug bool
		logWarn  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, true},
		{"error", false, false},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(Config{Level: tt.level, Output: &buf})

			logger.Debug("debug")
			assert.Equal(t, tt.logDebug, buf.Len() > 0)

			buf.Reset()
			logger.Warn("warn")
			assert.Equal(t, tt.logWarn, buf.Len() > 0)
		})
	}
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: "text", Output: &buf, ServiceName: "svc"})

	logger.Info("plain")

	assert.Contains(t, buf.String(), "msg=plain")
	assert.Contains(t, buf.String(), "service=svc")
}
