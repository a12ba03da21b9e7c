package trace

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// Config holds logger configuration.
type Config struct {
	Level slog.Level // stderr level
	// Stderr receives human-readable records; nil means os.Stderr.
	Stderr io.Writer
	// FilePath, when set, receives JSON records; FileLevel overrides Level for it.
	FilePath  string
	FileLevel *slog.Level
	// RingSize > 0 keeps that many recent debug records for Dump.
	RingSize int
}

// Logger bundles the slog logger with the resources behind it.
type Logger struct {
	*slog.Logger
	ring *RingHandler
	file *os.File
}

// New creates a Logger based on Config.
func New(cfg Config) (*Logger, error) {
	stderr := cfg.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	var handlers []slog.Handler
	if cfg.Level < LevelOff {
		handlers = append(handlers, slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Level}))
	}

	lg := &Logger{}
	if cfg.FilePath != "" {
		// #nosec G304 -- path comes from the user's flags
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		lg.file = f
		fileLevel := cfg.Level
		if cfg.FileLevel != nil {
			fileLevel = *cfg.FileLevel
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: fileLevel}))
	}

	if cfg.RingSize > 0 {
		lg.ring = NewRingHandler(cfg.RingSize, slog.LevelDebug)
		handlers = append(handlers, lg.ring)
	}

	switch len(handlers) {
	case 0:
		lg.Logger = Discard()
	case 1:
		lg.Logger = slog.New(handlers[0])
	default:
		lg.Logger = slog.New(slogmulti.Fanout(handlers...))
	}
	return lg, nil
}

// Dump writes the ring contents to w. Without a ring it writes nothing.
func (l *Logger) Dump(w io.Writer) error {
	if l == nil || l.ring == nil {
		return nil
	}
	return l.ring.Dump(w)
}

// Close releases the log file.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}
