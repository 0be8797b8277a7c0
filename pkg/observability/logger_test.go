package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(buf *bytes.Buffer, level LogLevel) *slog.Logger {
	return NewLogger(LogConfig{Level: level, Format: LogFormatJSON, Output: buf})
}

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestNewLogger(t *testing.T) {
	t.Run("text format is human readable", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: LogLevelInfo, Format: LogFormatText, Output: &buf})

		logger.Info("board refreshed", "tasks", 10)

		assert.Contains(t, buf.String(), "board refreshed")
		assert.Contains(t, buf.String(), "tasks=10")
	})

	t.Run("json format emits one object per record", func(t *testing.T) {
		var buf bytes.Buffer
		jsonLogger(&buf, LogLevelInfo).Info("board refreshed", "tasks", 10)

		record := decodeRecord(t, &buf)
		assert.Equal(t, "board refreshed", record["msg"])
		assert.Equal(t, float64(10), record["tasks"])
	})

	t.Run("level filters lower severities", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: LogLevelWarn, Format: LogFormatText, Output: &buf})

		logger.Debug("debug line")
		logger.Info("info line")
		logger.Warn("warn line")

		assert.NotContains(t, buf.String(), "debug line")
		assert.NotContains(t, buf.String(), "info line")
		assert.Contains(t, buf.String(), "warn line")
	})

	t.Run("stamps service identity on every record", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{
			Level:          LogLevelInfo,
			Format:         LogFormatJSON,
			Output:         &buf,
			ServiceName:    "engage",
			ServiceVersion: "1.2.3",
		})

		logger.Info("anything")

		record := decodeRecord(t, &buf)
		assert.Equal(t, "engage", record["service"])
		assert.Equal(t, "1.2.3", record["version"])
	})

	t.Run("lifts correlation and request ids from the context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := jsonLogger(&buf, LogLevelInfo)

		ctx := WithCorrelationID(context.Background(), "corr-123")
		ctx = WithRequestID(ctx, "req-456")
		logger.InfoContext(ctx, "handled")

		record := decodeRecord(t, &buf)
		assert.Equal(t, "corr-123", record[CorrelationIDKey])
		assert.Equal(t, "req-456", record[RequestIDKey])
	})

	t.Run("plain context adds no id attributes", func(t *testing.T) {
		var buf bytes.Buffer
		jsonLogger(&buf, LogLevelInfo).InfoContext(context.Background(), "handled")

		record := decodeRecord(t, &buf)
		assert.NotContains(t, record, CorrelationIDKey)
		assert.NotContains(t, record, RequestIDKey)
	})
}

func TestLogConfigs(t *testing.T) {
	dev := DefaultLogConfig()
	assert.Equal(t, LogLevelInfo, dev.Level)
	assert.Equal(t, LogFormatText, dev.Format)
	assert.Equal(t, "engage", dev.ServiceName)

	prod := ProductionLogConfig()
	assert.Equal(t, LogFormatJSON, prod.Format)
	assert.True(t, prod.AddSource)
	assert.Equal(t, "engage", prod.ServiceName)
}

func TestLoggerFromEnv(t *testing.T) {
	t.Run("production env selects json", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")

		logger := LoggerFromEnv()
		require.NotNil(t, logger)
	})

	t.Run("log level override applies", func(t *testing.T) {
		t.Setenv("APP_ENV", "development")
		t.Setenv("LOG_LEVEL", "error")

		logger := LoggerFromEnv()
		assert.False(t, logger.Enabled(context.Background(), slog.LevelWarn))
		assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
	})
}

func TestLogLevelSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LogLevelDebug.slogLevel())
	assert.Equal(t, slog.LevelInfo, LogLevelInfo.slogLevel())
	assert.Equal(t, slog.LevelWarn, LogLevelWarn.slogLevel())
	assert.Equal(t, slog.LevelError, LogLevelError.slogLevel())
	assert.Equal(t, slog.LevelInfo, LogLevel("bogus").slogLevel())
}

func TestAttributeHandlerDelegation(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	handler := &attributeHandler{handler: base}

	assert.False(t, handler.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, handler.Enabled(context.Background(), slog.LevelError))

	assert.NotSame(t, handler, handler.WithAttrs([]slog.Attr{slog.String("k", "v")}))
	assert.NotSame(t, handler, handler.WithGroup("group"))
}
