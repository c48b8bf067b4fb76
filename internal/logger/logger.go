package logger

import (
	"log/slog"
	"os"

	"terestats-server/internal/config"
)

// Setup installs the process-wide slog default: JSON records in production,
// human-readable text at debug level everywhere else.
func Setup(cfg *config.Config) {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	var handler slog.Handler
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
