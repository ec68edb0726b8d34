// Package logger builds the process-wide slog logger: human-friendly
// colored output during development, JSON in every other environment.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/golang-cz/devslog"
)

// New creates a logger for the given environment and level.
func New(environment, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if environment == "development" {
		handler = devslog.NewHandler(os.Stdout, &devslog.Options{HandlerOptions: opts})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
