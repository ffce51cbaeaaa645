package logging

import (
	"log/slog"
	"os"
)

// New creates the cardflow logger. Records go to stderr so that scripts, exports and
// the MCP stdio transport keep stdout to themselves.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: shortErrKey,
	}))
}

// NewNop returns a logger that drops every record. Library types default to it.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func shortErrKey(_ []string, a slog.Attr) slog.Attr {
	if a.Key == "error" {
		a.Key = "err"
	}
	return a
}
