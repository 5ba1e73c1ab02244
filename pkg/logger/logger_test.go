package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"DEBUG", zap.DebugLevel},
		{"info", zap.InfoLevel},
		{"", zap.InfoLevel},
		{"Warning", zap.WarnLevel},
		{"ERROR", zap.ErrorLevel},
		{"critical", zap.DPanicLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestInitRespectsLevel(t *testing.T) {
	Init("WARNING", "text")
	defer func() { Log = nil }()

	require.NotNil(t, Log)
	assert.False(t, Log.Core().Enabled(zap.InfoLevel))
	assert.True(t, Log.Core().Enabled(zap.WarnLevel))
}

func TestTraceIDContext(t *testing.T) {
	ctx := ContextWithTraceID(context.Background(), "abc")
	assert.Equal(t, "abc", TraceIDFromContext(ctx))
	assert.Equal(t, "", TraceIDFromContext(context.Background()))
	assert.NotNil(t, FromContext(ctx))
}

func TestNilLoggerIsSafe(t *testing.T) {
	Log = nil
	Info("ignored")
	Debug("ignored")
	Error("ignored")
	assert.NotNil(t, Named("x"))
	assert.NotNil(t, WithTraceID("t"))
}
