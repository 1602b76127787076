package app

import (
	"io"
	"log/slog"
)

// newLogger builds the run's logger from cfg. Unknown or empty levels fall
// back to warn, so a plain build prints only the diagnostic lines. The
// global logger is left alone.
func newLogger(cfg *Config, outW io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if cfg.LogLevel != "" {
		var parsed slog.Level
		if err := parsed.UnmarshalText([]byte(cfg.LogLevel)); err == nil {
			level = parsed
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(outW, opts)
	} else {
		handler = slog.NewTextHandler(outW, opts)
	}

	logger := slog.New(handler)
	if cfg.Mode != "" {
		logger = logger.With("mode", cfg.Mode)
	}
	return logger
}
