package facefont

import (
	"log/slog"

	"github.com/emojiworks/facefont/internal/logging"
)

// SetLogger configures the logger for facefont and all its sub-packages.
// By default, facefont produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by facefont:
//   - [slog.LevelDebug]: internal diagnostics (table sizes, crop boxes)
//   - [slog.LevelInfo]: lifecycle events (font assembled, sessions swept)
//   - [slog.LevelWarn]: non-fatal issues (stored settings out of range)
//
// Example:
//
//	// Enable info-level logging to stderr:
//	facefont.SetLogger(slog.Default())
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by facefont.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}
