package config

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides structured logging for installer components.
// *zap.SugaredLogger satisfies it directly.
type Logger interface {
	// Debugw logs debug-level messages with optional key-value pairs.
	Debugw(msg string, keysAndValues ...interface{})

	// Infow logs info-level messages with optional key-value pairs.
	Infow(msg string, keysAndValues ...interface{})

	// Warnw logs warning-level messages with optional key-value pairs.
	Warnw(msg string, keysAndValues ...interface{})

	// Errorw logs error-level messages with optional key-value pairs.
	Errorw(msg string, keysAndValues ...interface{})
}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger {
	return zap.NewNop().Sugar()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger()
	}
	return l
}

// NewLogger builds a console logger writing to stderr at the given level
// (debug, info, warn, error).
func NewLogger(level string) (*zap.SugaredLogger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.CallerKey = ""
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		lvl,
	)
	return zap.New(core).Sugar(), nil
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "warn", "warning":
		return zapcore.WarnLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", level)
	}
}
