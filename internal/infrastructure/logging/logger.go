package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger interface used by every shell component
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// DefaultLogger writes structured JSON entries through zap
type DefaultLogger struct {
	sugar *zap.SugaredLogger
}

// NewDefaultLogger creates a logger writing INFO and above to stderr
func NewDefaultLogger() Logger {
	return NewLogger(os.Stderr, zapcore.InfoLevel)
}

// NewDevelopmentLogger creates a logger that also emits DEBUG entries
func NewDevelopmentLogger() Logger {
	return NewLogger(os.Stderr, zapcore.DebugLevel)
}

// NewLogger creates a JSON logger writing to w at the given minimum level.
// Entries carry the keys "timestamp", "level" and "message"; fields are
// flattened into the entry.
func NewLogger(w io.Writer, level zapcore.Level) Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		CallerKey:      zapcore.OmitKey,
		StacktraceKey:  zapcore.OmitKey,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(time.RFC3339),
		EncodeDuration: zapcore.MillisDurationEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(w),
		level,
	)

	return &DefaultLogger{sugar: zap.New(core).Sugar()}
}

// normalizeFields makes sure keys are strings so zap never drops a pair.
// Expected format: key1, value1, key2, value2, ...
func normalizeFields(fields []interface{}) []interface{} {
	out := make([]interface{}, 0, len(fields)+1)
	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("field_%d", i/2)
		}
		if i+1 < len(fields) {
			out = append(out, key, fields[i+1])
		} else {
			// Odd number of fields, keep the dangling value under an index key
			out = append(out, fmt.Sprintf("field_%d", i/2), fields[i])
		}
	}
	return out
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	l.sugar.Debugw(msg, normalizeFields(fields)...)
}

func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	l.sugar.Infow(msg, normalizeFields(fields)...)
}

func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	l.sugar.Warnw(msg, normalizeFields(fields)...)
}

func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	l.sugar.Errorw(msg, normalizeFields(fields)...)
}

// Sync flushes buffered entries
func (l *DefaultLogger) Sync() error {
	return l.sugar.Sync()
}

// ClassifiedError interface for error classification (to avoid circular imports)
type ClassifiedError interface {
	Error() string
	GetCode() string
	GetContext() map[string]string
	GetTimestamp() time.Time
}

// LogError logs errors with their classification and the given context
func LogError(logger Logger, err error, operation string, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	if classified, ok := err.(ClassifiedError); ok {
		fields := []interface{}{
			"operation", operation,
			"error_code", classified.GetCode(),
			"timestamp", classified.GetTimestamp(),
		}

		for k, v := range classified.GetContext() {
			fields = append(fields, k, v)
		}

		for k, v := range context {
			fields = append(fields, k, v)
		}

		logger.Error(fmt.Sprintf("Shell error: %s", err.Error()), fields...)
		return
	}

	fields := []interface{}{
		"operation", operation,
		"error_type", fmt.Sprintf("%T", err),
	}

	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Error(fmt.Sprintf("Unexpected error: %s", err.Error()), fields...)
}

// LogOperation logs a completed operation with its duration
func LogOperation(logger Logger, operation string, duration time.Duration, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	fields := []interface{}{
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	}

	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Info(fmt.Sprintf("Operation completed: %s", operation), fields...)
}

// NopLogger discards everything; handy for tests and headless tooling
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
