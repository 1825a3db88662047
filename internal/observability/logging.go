package observability

import (
	"log/slog"
	"os"
)

// NewLogger returns a structured text logger that writes to stderr at the
// given level.
func NewLogger(level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	return slog.New(handler)
}
