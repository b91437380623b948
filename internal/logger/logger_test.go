package logger

import (
	"log/slog"
	"testing"

	"github.com/promptforge/promptforge/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNewReturnsAsyncCloser(t *testing.T) {
	_, closer := New(config.Logging{Level: "info", Service: "test", Async: true, AsyncBuffer: 16})
	if _, ok := closer.(*AsyncHandler); !ok {
		t.Fatalf("expected *AsyncHandler closer, got %T", closer)
	}
	closer.Close()
}

func TestNewSyncCloserIsNop(t *testing.T) {
	_, closer := New(config.Logging{Level: "info", Service: "test"})
	closer.Close()
}
