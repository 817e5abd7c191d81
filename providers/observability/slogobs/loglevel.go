package slogobs

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// LevelFromEnv returns the log level configured via environment variables.
// It checks TASKROUTER_LOG_LEVEL first, then falls back to LOG_LEVEL.
// Default: INFO
func LevelFromEnv() slog.Level {
	level := os.Getenv("TASKROUTER_LOG_LEVEL")
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		return slog.LevelInfo
	}
	return ParseLevel(level)
}

// ParseLevel parses DEBUG, INFO, WARN, WARNING or ERROR (case-insensitive).
// Unknown values yield INFO and print a warning to stderr.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		fmt.Fprintf(os.Stderr, "Warning: Unknown log level '%s', using INFO\n", level)
		return slog.LevelInfo
	}
}

// FormatFromEnv reads TASKROUTER_LOG_FORMAT ("text" or "json"), defaulting to text.
func FormatFromEnv() Format {
	if strings.EqualFold(strings.TrimSpace(os.Getenv("TASKROUTER_LOG_FORMAT")), string(FormatJSON)) {
		return FormatJSON
	}
	return FormatText
}
