package diag

import (
	"cmp"
	"slices"

	"fortio.org/safecast"
)

// Bag collects diagnostics up to a limit. Diagnostics past the limit are
// counted but not stored, so a file full of garbage cannot flood the output.
type Bag struct {
	items   []Diagnostic
	max     uint16
	dropped int
}

func clampLimit(n int) uint16 {
	limit, err := safecast.Conv[uint16](n)
	if err == nil {
		return limit
	}
	if n < 0 {
		return 0
	}
	return ^uint16(0)
}

// NewBag creates a bag holding at most max diagnostics (clamped to uint16).
func NewBag(max int) *Bag {
	limit := clampLimit(max)
	return &Bag{
		items: make([]Diagnostic, 0, min(limit, 16)),
		max:   limit,
	}
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если лимит достигнут; такая диагностика учитывается в Dropped.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= int(b.max) {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Cap() uint16 {
	return b.max
}

// Dropped returns how many diagnostics were rejected by the limit.
func (b *Bag) Dropped() int {
	return b.dropped
}

// AddDropped records n diagnostics that were rejected before reaching this bag,
// e.g. when a cached result is replayed.
func (b *Bag) AddDropped(n int) {
	if n > 0 {
		b.dropped += n
	}
}

// Count returns the number of stored diagnostics with severity >= sev.
func (b *Bag) Count(sev Severity) int {
	n := 0
	for i := range b.items {
		if b.items[i].Severity >= sev {
			n++
		}
	}
	return n
}

func (b *Bag) HasErrors() bool {
	return b.Count(SevError) > 0
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items возвращает read-only slice диагностик.
// ВАЖНО: не модифицируйте возвращаемый срез!
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Filter returns a new bag with the same limit holding the diagnostics keep accepts.
func (b *Bag) Filter(keep func(Diagnostic) bool) *Bag {
	out := &Bag{max: b.max, dropped: b.dropped}
	for _, d := range b.items {
		if keep(d) {
			out.items = append(out.items, d)
		}
	}
	return out
}

// Merge объединяет диагностики из другого Bag.
// Лимит растёт, чтобы вместить все элементы обоих.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	if total := len(b.items) + len(other.items); total > int(b.max) {
		b.max = clampLimit(total)
	}
	b.dropped += other.dropped
	for _, d := range other.items {
		b.Add(d)
	}
}

// Sort orders by file, start, end, severity (errors first) and code so that
// output does not depend on worker scheduling.
func (b *Bag) Sort() {
	slices.SortStableFunc(b.items, func(x, y Diagnostic) int {
		return cmp.Or(
			cmp.Compare(x.Primary.File, y.Primary.File),
			cmp.Compare(x.Primary.Start.Offset, y.Primary.Start.Offset),
			cmp.Compare(x.Primary.End.Offset, y.Primary.End.Offset),
			cmp.Compare(y.Severity, x.Severity),
			cmp.Compare(x.Code, y.Code),
		)
	})
}
