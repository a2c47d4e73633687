package app

import (
	"log/slog"
	"os"
)

// NewLogger returns the process logger. JSON output is meant for production
// log shipping; the text handler is for local development.
func NewLogger(cfg *Config) *slog.Logger {
	var handler slog.Handler
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true})
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	return slog.New(handler).With(slog.String("service", "launchpad"))
}
