package driver

import (
	"fmt"
	"log/slog"
)

// Mode selects how file content reaches the lexer.
type Mode uint8

const (
	// ModeBuffer loads the whole file into a FileSet first.
	ModeBuffer Mode = iota
	// ModeStream feeds the lexer from the open file without keeping its content.
	ModeStream
)

func (m Mode) String() string {
	if m == ModeStream {
		return "stream"
	}
	return "buffer"
}

// ParseMode parses "buffer" or "stream"; empty means buffer.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "buffer":
		return ModeBuffer, nil
	case "stream":
		return ModeStream, nil
	default:
		return ModeBuffer, fmt.Errorf("unknown mode %q (want buffer or stream)", s)
	}
}

// Options configures Tokenize and TokenizeDir.
type Options struct {
	Mode           Mode
	MaxDiagnostics int
	// Jobs bounds TokenizeDir parallelism; <= 0 means GOMAXPROCS.
	Jobs int
	// KeepGoing resynchronises after a malformed token instead of stopping.
	KeepGoing bool
	// NormalizeNFC applies in buffer mode only; streamed input is not normalised.
	NormalizeNFC bool
	// Timings appends an OBS6001 diagnostic with phase durations.
	Timings bool
	// Cache is consulted in buffer mode; nil disables caching.
	Cache    *TokenCache
	Logger   *slog.Logger
	Progress ProgressSink
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (o Options) maxDiagnostics() int {
	if o.MaxDiagnostics <= 0 {
		return 100
	}
	return o.MaxDiagnostics
}
