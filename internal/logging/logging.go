// Package logging provides component-scoped structured loggers backed by zap.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields carries structured context attached to a log entry.
type Fields map[string]interface{}

// Logger is a component-scoped structured logger.
type Logger struct {
	zl *zap.Logger
}

var base = newBase()

func newBase() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if os.Getenv("LOG_LEVEL") == "debug" {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Fall back to a no-op logger rather than panicking at init.
		return zap.NewNop()
	}
	return logger
}

// NewLogger creates a logger scoped to a component name.
func NewLogger(component string) *Logger {
	return &Logger{zl: base.Named(component)}
}

// Debug logs a debug-level message.
func (l *Logger) Debug(msg string, fields ...Fields) {
	l.zl.Debug(msg, zapFields(fields)...)
}

// Info logs an info-level message.
func (l *Logger) Info(msg string, fields ...Fields) {
	l.zl.Info(msg, zapFields(fields)...)
}

// Warn logs a warning-level message.
func (l *Logger) Warn(msg string, fields ...Fields) {
	l.zl.Warn(msg, zapFields(fields)...)
}

// Error logs an error-level message.
func (l *Logger) Error(msg string, fields ...Fields) {
	l.zl.Error(msg, zapFields(fields)...)
}

// Fatal logs the message and exits.
func (l *Logger) Fatal(msg string, fields ...Fields) {
	l.zl.Fatal(msg, zapFields(fields)...)
}

func zapFields(fields []Fields) []zap.Field {
	var out []zap.Field
	for _, f := range fields {
		for k, v := range f {
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
