package source

import (
	"fmt"

	"fortio.org/safecast"
)

// Position is a human-readable location in the input.
// Line and Col are 1-based, Offset is the 0-based byte offset.
type Position struct {
	Line   uint32
	Col    uint32
	Offset uint32
}

// StartPosition returns the position of the first character of a stream.
func StartPosition() Position {
	return Position{Line: 1, Col: 1}
}

// Advance returns the position that follows consuming r, which occupied size bytes.
// A newline moves to column 1 of the next line; every other rune moves one column right.
func (p Position) Advance(r rune, size int) Position {
	usz, err := safecast.Conv[uint32](size)
	if err != nil {
		panic(fmt.Errorf("advance size overflow: %w", err))
	}
	p.Offset += usz
	if r == '\n' {
		p.Line++
		p.Col = 1
		return p
	}
	p.Col++
	return p
}

// IsValid reports whether p points inside a stream (zero value does not).
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Col > 0
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}
