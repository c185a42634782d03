package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/chatcart/session-api/internal/config"
)

// New creates a zerolog.Logger configured for the session service. An
// unknown LOG_LEVEL falls back to info with a warning rather than failing
// startup.
func New(cfg *config.Config) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	base := log.Output(output).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Logger()

	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		base.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, falling back to info")
		level = zerolog.InfoLevel
	}
	return base.Level(level)
}

func parseLevel(raw string) (zerolog.Level, error) {
	if raw == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(strings.ToLower(raw))
}
