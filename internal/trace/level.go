package trace

import (
	"fmt"
	"log/slog"
	"strings"
)

// LevelOff is above every level slog emits, so nothing passes it.
const LevelOff = slog.Level(100)

// ParseLevel converts a string to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "off":
		return LevelOff, nil
	default:
		return LevelOff, fmt.Errorf("invalid log level: %q (expected: debug|info|warn|error|off)", s)
	}
}

// LevelName is the inverse of ParseLevel.
func LevelName(l slog.Level) string {
	if l >= LevelOff {
		return "off"
	}
	return strings.ToLower(l.String())
}
