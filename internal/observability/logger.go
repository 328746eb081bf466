// internal/observability/logger.go
package observability

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/xkilldash9x/autoentry/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	globalLogger atomic.Pointer[zap.Logger]
	once         sync.Once
)

const (
	timeLayout = "2006-01-02T15:04:05.000Z07:00"
	ansiReset  = "\x1b[0m"
)

// ansiCodes maps the color names accepted in logger.colors to escape codes.
var ansiCodes = map[string]string{
	"black":   "\x1b[30m",
	"red":     "\x1b[31m",
	"green":   "\x1b[32m",
	"yellow":  "\x1b[33m",
	"blue":    "\x1b[34m",
	"magenta": "\x1b[35m",
	"cyan":    "\x1b[36m",
	"white":   "\x1b[37m",
}

// Sync errors that only mean the sink is a terminal or a pipe.
var ignoredSyncErrors = []string{
	"sync /dev/stdout",
	"sync /dev/stderr",
	"invalid argument",
	"operation not supported",
	"inappropriate ioctl for device",
}

// Initialize installs the process-wide logger. Only the first call has any
// effect; console output goes to consoleWriter and, when logger.log_file is
// set, a rotated JSON copy goes to that file.
func Initialize(cfg config.LoggerConfig, consoleWriter zapcore.WriteSyncer) {
	once.Do(func() {
		logger := buildLogger(cfg, consoleWriter)
		globalLogger.Store(logger)
		zap.ReplaceGlobals(logger)
		zap.RedirectStdLog(logger)
	})
}

// InitializeLogger logs to stderr so stdout stays free for prompts and summaries.
func InitializeLogger(cfg config.LoggerConfig) {
	Initialize(cfg, zapcore.Lock(os.Stderr))
}

func buildLogger(cfg config.LoggerConfig, console zapcore.WriteSyncer) *zap.Logger {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level.SetLevel(zap.InfoLevel)
		}
	}

	var consoleEnc zapcore.Encoder
	if cfg.Format == "console" {
		consoleEnc = consoleEncoder(cfg.Colors)
	} else {
		consoleEnc = jsonEncoder()
	}
	cores := []zapcore.Core{zapcore.NewCore(consoleEnc, console, level)}
	if cfg.LogFile != "" {
		cores = append(cores, zapcore.NewCore(jsonEncoder(), fileSink(cfg), level))
	}

	options := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
	if cfg.AddSource {
		options = append(options, zap.AddCaller())
	}
	logger := zap.New(zapcore.NewTee(cores...), options...)
	if cfg.ServiceName != "" {
		logger = logger.Named(cfg.ServiceName)
	}
	return logger
}

func fileSink(cfg config.LoggerConfig) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	})
}

func baseEncoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	return ec
}

func jsonEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(baseEncoderConfig())
}

// consoleEncoder is a single-line encoder with colored levels and a dotted
// logger name prefix.
func consoleEncoder(colors config.ColorConfig) zapcore.Encoder {
	ec := baseEncoderConfig()
	palette := levelColors(colors)
	ec.EncodeLevel = func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		name := l.CapitalString()
		if code, ok := palette[l]; ok {
			name = code + name + ansiReset
		}
		enc.AppendString(name)
	}
	ec.EncodeName = func(loggerName string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(loggerName + ".")
	}
	return zapcore.NewConsoleEncoder(ec)
}

// levelColors resolves the configured color names. Levels with an unknown or
// empty name are printed without color.
func levelColors(colors config.ColorConfig) map[zapcore.Level]string {
	named := map[zapcore.Level]string{
		zapcore.DebugLevel:  colors.Debug,
		zapcore.InfoLevel:   colors.Info,
		zapcore.WarnLevel:   colors.Warn,
		zapcore.ErrorLevel:  colors.Error,
		zapcore.DPanicLevel: colors.DPanic,
		zapcore.PanicLevel:  colors.Panic,
		zapcore.FatalLevel:  colors.Fatal,
	}
	palette := make(map[zapcore.Level]string, len(named))
	for l, name := range named {
		if code, ok := ansiCodes[strings.ToLower(name)]; ok {
			palette[l] = code
		}
	}
	return palette
}

// SetLogger replaces the global logger.
func SetLogger(logger *zap.Logger) {
	globalLogger.Store(logger)
}

// ResetForTest clears the global logger and allows Initialize to run again.
func ResetForTest() {
	globalLogger.Store(nil)
	once = sync.Once{}
}

// GetLogger returns the global logger, or a development logger when nothing
// has been initialized yet.
func GetLogger() *zap.Logger {
	if logger := globalLogger.Load(); logger != nil {
		return logger
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	l.Warn("Global logger requested before initialization; using fallback.")
	return l.Named("fallback")
}

// Sync flushes buffered entries. Call it before exiting.
func Sync() {
	logger := globalLogger.Load()
	if logger == nil {
		return
	}
	if err := logger.Sync(); err != nil && !isIgnorableSyncError(err) {
		fmt.Fprintln(os.Stderr, "Error: failed to sync logger:", err)
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	for _, s := range ignoredSyncErrors {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
