package source

import (
	"fmt"
	"unicode/utf8"

	"fortio.org/safecast"
)

// Buffer is a Source over an immutable in-memory byte slice.
// Content is decoded as UTF-8; an invalid byte yields utf8.RuneError of width 1.
type Buffer struct {
	content []byte
	// limit is the exclusive upper bound for pos.Offset
	limit uint32
	pos   Position
}

// NewBuffer creates a buffer source. The slice must not be modified afterwards.
// It panics when content is longer than MaxInputSize; FileSet.Load rejects such
// files with ErrInputTooLarge before they get here.
func NewBuffer(content []byte) *Buffer {
	limit, err := safecast.Conv[uint32](len(content))
	if err != nil {
		panic(fmt.Errorf("len buffer content overflow: %w", err))
	}
	return &Buffer{
		content: content,
		limit:   limit,
		pos:     StartPosition(),
	}
}

// NewBufferString creates a buffer source over s.
func NewBufferString(s string) *Buffer {
	return NewBuffer([]byte(s))
}

// EOF reports whether every byte has been consumed.
func (b *Buffer) EOF() bool {
	return b.pos.Offset >= b.limit
}

func (b *Buffer) decode() (rune, int) {
	if b.EOF() {
		return utf8.RuneError, 0
	}
	c := b.content[b.pos.Offset]
	if c < utf8.RuneSelf { // fast-path ASCII
		return rune(c), 1
	}
	return utf8.DecodeRune(b.content[b.pos.Offset:])
}

// Peek implements Source.
func (b *Buffer) Peek() (rune, bool) {
	r, size := b.decode()
	if size == 0 {
		return 0, false
	}
	return r, true
}

// Consume implements Source.
func (b *Buffer) Consume() (rune, bool) {
	r, size := b.decode()
	if size == 0 {
		return 0, false
	}
	b.pos = b.pos.Advance(r, size)
	return r, true
}

// Pos implements Source.
func (b *Buffer) Pos() Position {
	return b.pos
}
