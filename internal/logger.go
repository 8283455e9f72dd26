package internal

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the process logger from cfg and installs it as the
// default. Logs go to stderr so that stdout stays free for command output and
// the MCP stdio transport.
func NewLogger(cfg ApplicationConfig) *slog.Logger {
	return newLogger(os.Stderr, cfg)
}

func newLogger(w io.Writer, cfg ApplicationConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogFormat == LogFormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
