// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/autoentry/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// syncBuffer is a goroutine safe bytes.Buffer usable as a zapcore.WriteSyncer.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) Sync() error { return nil }

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func (s *syncBuffer) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.buf.Bytes()...)
}

var _ zapcore.WriteSyncer = (*syncBuffer)(nil)

func TestInitialize(t *testing.T) {
	t.Run("should initialize console logger with colors", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()
		buf := &syncBuffer{}

		Initialize(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "TestService",
			Colors:      config.ColorConfig{Info: "green"},
		}, buf)
		GetLogger().Info("This is a test message.")

		output := buf.String()
		assert.Contains(t, output, "INFO")
		assert.Contains(t, output, "This is a test message.")
		assert.Contains(t, output, ansiCodes["green"]+"INFO"+ansiReset, "Info level should be colorized green")
		assert.Contains(t, output, "TestService.")
	})

	t.Run("should initialize json logger", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()
		buf := &syncBuffer{}

		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "JSONTest"}, buf)
		GetLogger().Warn("This is a JSON message.", zap.String("key", "value"))

		var logEntry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry), "Log output should be valid JSON")
		assert.Equal(t, "WARN", logEntry["level"])
		assert.Equal(t, "JSONTest", logEntry["logger"])
		assert.Equal(t, "This is a JSON message.", logEntry["msg"])
		assert.Equal(t, "value", logEntry["key"])
	})

	t.Run("should respect the configured level", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()
		buf := &syncBuffer{}

		Initialize(config.LoggerConfig{Level: "warn", Format: "json"}, buf)
		GetLogger().Info("dropped")
		assert.Empty(t, buf.String())
	})

	t.Run("should write to a log file if configured", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()
		logFile := filepath.Join(t.TempDir(), "autoentry.log")

		Initialize(config.LoggerConfig{
			Level:   "debug",
			Format:  "json",
			LogFile: logFile,
			MaxSize: 1,
		}, &syncBuffer{})
		GetLogger().Error("This should go to the file.")
		Sync()

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), "This should go to the file.")
	})

	t.Run("should only initialize once", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()
		buf := &syncBuffer{}

		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "First"}, buf)
		logger1 := GetLogger()
		Initialize(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "Second"}, buf)
		logger2 := GetLogger()

		assert.Equal(t, logger1, logger2)
		logger2.Info("test")
		assert.True(t, strings.Contains(buf.String(), "First"))
		assert.False(t, strings.Contains(buf.String(), "Second"))
	})
}

func TestGetLogger(t *testing.T) {
	t.Run("should return a fallback logger if not initialized", func(t *testing.T) {
		ResetForTest()
		require.NotNil(t, GetLogger())
	})

	t.Run("should return the logger installed by SetLogger", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()
		logger := zaptest.NewLogger(t)
		SetLogger(logger)
		assert.Same(t, logger, GetLogger())
	})
}

func TestLevelColors(t *testing.T) {
	palette := levelColors(config.ColorConfig{Info: "Green", Warn: "yellow", Error: "no-such-color"})

	assert.Equal(t, ansiCodes["green"], palette[zapcore.InfoLevel], "names are case-insensitive")
	assert.Equal(t, ansiCodes["yellow"], palette[zapcore.WarnLevel])
	_, ok := palette[zapcore.ErrorLevel]
	assert.False(t, ok, "unknown names leave the level uncolored")
	_, ok = palette[zapcore.DebugLevel]
	assert.False(t, ok)
}

func TestInitialize_ConsoleWithoutColors(t *testing.T) {
	ResetForTest()
	defer ResetForTest()
	buf := &syncBuffer{}

	Initialize(config.LoggerConfig{Level: "debug", Format: "console"}, buf)
	GetLogger().Debug("plain line")

	assert.Contains(t, buf.String(), "DEBUG")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestIsIgnorableSyncError(t *testing.T) {
	assert.True(t, isIgnorableSyncError(errors.New("sync /dev/stderr: invalid argument")))
	assert.True(t, isIgnorableSyncError(errors.New("sync /dev/stdout: inappropriate ioctl for device")))
	assert.False(t, isIgnorableSyncError(errors.New("disk full")))
}
