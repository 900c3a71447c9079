package app

import (
	"log/slog"
	"os"
)

// NewLogger returns the process logger. Production runs emit JSON at info
// level; everything else gets readable text with debug enabled.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	if cfg != nil && cfg.IsProduction() {
		opts.Level = slog.LevelInfo
	}
	if cfg != nil && cfg.LogFormat == "json" {
		opts.AddSource = true
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
