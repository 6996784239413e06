package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New returns a JSON slog.Logger tagged with the service name. This is the
// operator channel: telemetry transport failures surface here, never to
// request handlers.
func New(service string, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", service)
}

// FromEnv builds a logger whose level comes from LOG_LEVEL
// (debug|info|warn|error, default info).
func FromEnv(service string) *slog.Logger {
	return New(service, parseLevel(os.Getenv("LOG_LEVEL")))
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
