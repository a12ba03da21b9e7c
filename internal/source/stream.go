package source

import (
	"bufio"
	"errors"
	"io"
	"math"
)

// ErrInputTooLarge is reported when an input would grow past MaxInputSize bytes.
var ErrInputTooLarge = errors.New("input larger than 4 GiB")

// MaxInputSize is the largest input a Position offset can address.
const MaxInputSize = math.MaxUint32

// Stream is a Source over an incremental byte supply such as a file or a socket.
//
// It keeps exactly one decoded rune of read-ahead, so Peek never reads twice for
// the same rune. A read error and a clean end of input both end the stream;
// the first non-EOF error is kept and reported by Err.
type Stream struct {
	rd   *bufio.Reader
	look rune
	size int
	full bool // look holds an unconsumed rune
	done bool // no more reads will be attempted
	err  error
	pos  Position

	// text включает ту же нормализацию, что и FileSet.Load: BOM в начале и CR перед LF пропускаются
	text  bool
	began bool
}

// NewStream creates a streaming source reading from r. Every byte reaches the lexer as is.
func NewStream(r io.Reader) *Stream {
	return &Stream{
		rd:  bufio.NewReader(r),
		pos: StartPosition(),
	}
}

// NewTextStream is NewStream with the rewrites FileSet.Load applies to whole files:
// a leading UTF-8 BOM is dropped and CRLF is read as LF. Positions count the
// rewritten text, so they agree with a buffer over the loaded file.
func NewTextStream(r io.Reader) *Stream {
	s := NewStream(r)
	s.text = true
	return s
}

// fill reads the next rune into the lookahead slot if it is empty.
func (s *Stream) fill() {
	for !s.full && !s.done {
		r, size, err := s.rd.ReadRune()
		if err != nil || size == 0 {
			s.done = true
			if err != nil && !errors.Is(err, io.EOF) {
				s.err = err
			}
			return
		}
		if s.text && s.skip(r) {
			continue
		}
		if uint64(s.pos.Offset)+uint64(size) > MaxInputSize {
			s.done = true
			s.err = ErrInputTooLarge
			return
		}
		s.look, s.size, s.full = r, size, true
	}
}

// skip reports whether r is removed by text normalization.
func (s *Stream) skip(r rune) bool {
	first := !s.began
	s.began = true
	switch r {
	case '\uFEFF':
		return first
	case '\r':
		next, err := s.rd.Peek(1)
		return err == nil && next[0] == '\n'
	}
	return false
}

// Peek implements Source.
func (s *Stream) Peek() (rune, bool) {
	s.fill()
	if !s.full {
		return 0, false
	}
	return s.look, true
}

// Consume implements Source.
func (s *Stream) Consume() (rune, bool) {
	s.fill()
	if !s.full {
		return 0, false
	}
	r := s.look
	s.full = false
	s.pos = s.pos.Advance(r, s.size)
	return r, true
}

// Pos implements Source.
func (s *Stream) Pos() Position {
	return s.pos
}

// Err returns the read error that ended the stream, or nil after a clean end of input.
// An input past MaxInputSize ends with ErrInputTooLarge.
func (s *Stream) Err() error {
	return s.err
}
