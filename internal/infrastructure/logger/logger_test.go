package logger

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/chatcart/session-api/internal/config"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want zerolog.Level
	}{
		{"default when empty", "", zerolog.InfoLevel},
		{"debug", "debug", zerolog.DebugLevel},
		{"warn uppercase", "WARN", zerolog.WarnLevel},
		{"unknown falls back to info", "loud", zerolog.InfoLevel},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger := New(&config.Config{
				ServiceName: "session-api",
				Environment: "test",
				LogLevel:    tc.raw,
			})
			if logger.GetLevel() != tc.want {
				t.Errorf("GetLevel() = %v, want %v", logger.GetLevel(), tc.want)
			}
		})
	}
}
