package trace

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// ringBuffer keeps the last N records (circular buffer). It is shared by all
// handlers derived from one RingHandler through WithAttrs/WithGroup.
type ringBuffer struct {
	mu       sync.RWMutex
	records  []slog.Record
	capacity int
	head     int  // next write position
	full     bool // has wrapped around
}

// RingHandler is a slog.Handler that stores records in memory for later Dump.
type RingHandler struct {
	buf    *ringBuffer
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewRingHandler creates a ring holding at most capacity records.
func NewRingHandler(capacity int, level slog.Leveler) *RingHandler {
	if capacity <= 0 {
		capacity = 4096
	}
	if level == nil {
		level = slog.LevelDebug
	}
	return &RingHandler{
		buf: &ringBuffer{
			records:  make([]slog.Record, capacity),
			capacity: capacity,
		},
		level: level,
	}
}

func (h *RingHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *RingHandler) Handle(_ context.Context, r slog.Record) error {
	stored := r.Clone()
	if len(h.attrs) > 0 || len(h.groups) > 0 {
		stored = slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
		var own []any
		r.Attrs(func(a slog.Attr) bool {
			own = append(own, a)
			return true
		})
		// атрибуты записи вкладываются в группы от внешней к внутренней
		for i := len(h.groups) - 1; i >= 0; i-- {
			own = []any{slog.Group(h.groups[i], own...)}
		}
		stored.AddAttrs(h.attrs...)
		for _, a := range own {
			stored.AddAttrs(a.(slog.Attr))
		}
	}

	b := h.buf
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[b.head] = stored
	b.head = (b.head + 1) % b.capacity
	if b.head == 0 {
		b.full = true
	}
	return nil
}

func (h *RingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	if len(h.groups) > 0 {
		// атрибуты внутри группы: упаковываем, чтобы не потерять вложенность
		nested := make([]any, len(attrs))
		for i, a := range attrs {
			nested[i] = a
		}
		for i := len(h.groups) - 1; i >= 0; i-- {
			nested = []any{slog.Group(h.groups[i], nested...)}
		}
		clone.attrs = append(append([]slog.Attr(nil), h.attrs...), nested[0].(slog.Attr))
		return &clone
	}
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *RingHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// Snapshot returns a copy of all stored records in chronological order.
func (h *RingHandler) Snapshot() []slog.Record {
	b := h.buf
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.full {
		// Not wrapped yet - return [0:head]
		result := make([]slog.Record, b.head)
		copy(result, b.records[:b.head])
		return result
	}

	// Wrapped - return [head:capacity] + [0:head]
	result := make([]slog.Record, b.capacity)
	copy(result, b.records[b.head:])
	copy(result[b.capacity-b.head:], b.records[:b.head])
	return result
}

// Dump writes all stored records to w as text lines.
func (h *RingHandler) Dump(w io.Writer) error {
	out := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	for _, r := range h.Snapshot() {
		if err := out.Handle(context.Background(), r); err != nil {
			return err
		}
	}
	return nil
}
