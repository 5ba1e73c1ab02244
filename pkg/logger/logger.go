package logger

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log *zap.Logger

// Levels accepted on the command line, in increasing severity.
var Levels = []string{"DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"}

// TraceIDKey is the context key for trace ID
type TraceIDKey struct{}

// ParseLevel maps a level name to a zap level. Names are case-insensitive.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zap.DebugLevel, nil
	case "", "INFO":
		return zap.InfoLevel, nil
	case "WARNING", "WARN":
		return zap.WarnLevel, nil
	case "ERROR":
		return zap.ErrorLevel, nil
	case "CRITICAL":
		return zap.DPanicLevel, nil
	default:
		return zap.InfoLevel, fmt.Errorf("invalid log level %q (choose from %s)", level, strings.Join(Levels, ", "))
	}
}

// Init initializes the logger with the specified level and format.
// Output always goes to stderr: stdout carries protocol frames.
func Init(level, format string) {
	var config zap.Config

	if format == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.Development = false
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	}
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	lvl, _ := ParseLevel(level)
	config.Level = zap.NewAtomicLevelAt(lvl)

	var err error
	Log, err = config.Build()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
}

// Sync flushes any buffered log entries
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

// L returns the global logger, or a no-op logger before Init.
func L() *zap.Logger {
	if Log == nil {
		return zap.NewNop()
	}
	return Log
}

// WithTraceID creates a logger with trace ID
func WithTraceID(traceID string) *zap.Logger {
	return L().With(zap.String("trace_id", traceID))
}

// ContextWithTraceID adds trace ID to context
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey{}, traceID)
}

// TraceIDFromContext retrieves trace ID from context
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if traceID, ok := ctx.Value(TraceIDKey{}).(string); ok {
		return traceID
	}
	return ""
}

// FromContext returns the global logger tagged with the context's trace ID, if any.
func FromContext(ctx context.Context) *zap.Logger {
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		return WithTraceID(traceID)
	}
	return L()
}

// Convenience methods for global logger
func Debug(msg string, fields ...zap.Field) {
	if Log != nil {
		Log.Debug(msg, fields...)
	}
}

func Info(msg string, fields ...zap.Field) {
	if Log != nil {
		Log.Info(msg, fields...)
	}
}

func Error(msg string, fields ...zap.Field) {
	if Log != nil {
		Log.Error(msg, fields...)
	}
}

// Named creates a named logger
func Named(name string) *zap.Logger {
	return L().Named(name)
}
