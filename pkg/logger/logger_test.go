package logger

import (
	"context"
	"testing"

	"github.com/jaennil/guide_helper/backend/terrain/pkg/config"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func TestFromContextFallsBackToNop(t *testing.T) {
	l := FromContext(context.Background())
	if _, ok := l.(*noOpLogger); !ok {
		t.Fatalf("expected no-op logger, got %T", l)
	}
}

func TestWithLoggerRoundTrip(t *testing.T) {
	zl := NewZapLoggerFrom(zaptest.NewLogger(t))
	ctx := WithLogger(context.Background(), zl)

	if got := FromContext(ctx); got != Logger(zl) {
		t.Fatalf("expected stored logger back, got %T", got)
	}
	zl.Info("stored logger works", "key", "value")
}

func TestToZapLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{in: "debug", want: zapcore.DebugLevel},
		{in: "warn", want: zapcore.WarnLevel},
		{in: "ERROR", want: zapcore.ErrorLevel},
		{in: "nonsense", want: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := toZapLevel(tt.in); got != tt.want {
			t.Errorf("toZapLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewZapLoggerBuilds(t *testing.T) {
	l := NewZapLogger(config.Logger{Level: "error"})
	l.Debug("dropped")
	_ = l.Sync()
}
