// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/sauce-e2e/internal/config"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	t.Run("should initialize console logger with colors", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "TestService",
			Colors:      config.ColorConfig{Info: "green"},
		}
		logger, closer := NewLogger(cfg, zapcore.AddSync(&buf))
		defer closer.Close()

		logger.Info("This is a test message.")
		Sync(logger)

		output := buf.String()
		assert.Contains(t, output, "INFO")
		assert.Contains(t, output, "This is a test message.")
		assert.Contains(t, output, colorGreen, "Info level should be colorized green")
		assert.Contains(t, output, colorReset)
		assert.Contains(t, output, "TestService.", "component name carries a dot suffix")
	})

	t.Run("should emit json when configured", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := config.LoggerConfig{Level: "info", Format: "json", ServiceName: "svc"}
		logger, closer := NewLogger(cfg, zapcore.AddSync(&buf))
		defer closer.Close()

		logger.Warn("json message")
		Sync(logger)

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "json message", entry["msg"])
		assert.Equal(t, "svc", entry["logger"])
	})

	t.Run("should fall back to info on an invalid level", func(t *testing.T) {
		var buf bytes.Buffer
		logger, closer := NewLogger(config.LoggerConfig{Level: "loud", Format: "json"}, zapcore.AddSync(&buf))
		defer closer.Close()

		logger.Debug("hidden")
		logger.Info("shown")
		Sync(logger)

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("should tee structured output to the log file", func(t *testing.T) {
		var buf bytes.Buffer
		logFile := filepath.Join(t.TempDir(), "run.log")
		cfg := config.LoggerConfig{Level: "info", Format: "console", LogFile: logFile, MaxSize: 1}
		logger, closer := NewLogger(cfg, zapcore.AddSync(&buf))

		logger.Info("to both sinks")
		Sync(logger)
		require.NoError(t, closer.Close())

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], `"msg":"to both sinks"`)
		assert.Contains(t, buf.String(), "to both sinks")
	})
}

func TestSyncNilLogger(t *testing.T) {
	assert.NotPanics(t, func() { Sync(nil) })
}
