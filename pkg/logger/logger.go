// Package logger provides the package-level slog logger used to report
// tolerable anomalies encountered during decoding without failing the
// decode outright.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

var globalLogger *slog.Logger

// Init configures the package-level logger at the given level
// ("debug", "info", "warn", "error"). Decoders log tolerable anomalies at
// warn; this is never required before calling into the package — Get
// falls back to slog.Default().
func Init(level string) error {
	var slogLevel slog.Level

	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return fmt.Errorf("logger: invalid level: %s", level)
	}

	globalLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel,
	}))

	return nil
}

// Discard silences the logger, used by tests that exercise tolerable
// anomalies and don't want them on the test runner's stderr.
func Discard() {
	globalLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Get returns the package-level logger, defaulting to slog.Default()
// before Init is called.
func Get() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}
