// Package logging configures the process-wide structured logger.
package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// New returns a slog.Logger with the provided level string (debug,
// info, warn, error). format may be "json" or "text".
func New(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogRunStart logs the beginning of an analysis run.
func LogRunStart(logger *slog.Logger, analysis, runID, input string, frames int) {
	logger.Info("analysis run started",
		"analysis", analysis,
		"id", runID,
		"input", input,
		"frames", frames,
	)
}

// LogRunComplete logs successful completion of an analysis run.
func LogRunComplete(logger *slog.Logger, analysis, runID string, duration time.Duration, rows int) {
	logger.Info("analysis run completed",
		"analysis", analysis,
		"id", runID,
		"duration", duration.String(),
		"rows", rows,
	)
}

// LogRunError logs an aborted analysis run.
func LogRunError(logger *slog.Logger, analysis, runID string, duration time.Duration, err error) {
	logger.Error("analysis run failed",
		"analysis", analysis,
		"id", runID,
		"duration", duration.String(),
		"error", err.Error(),
	)
}
