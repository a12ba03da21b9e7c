package source

import (
	"fmt"
)

// Span is a half-open range of positions inside one file.
type Span struct {
	File  FileID
	Start Position // включительно
	End   Position // не включительно
}

// SpanAt returns a span that starts and ends at p.
func SpanAt(file FileID, p Position) Span {
	return Span{File: file, Start: p, End: p}
}

func (s Span) Empty() bool {
	return s.Start.Offset == s.End.Offset
}

func (s Span) Len() uint32 {
	return s.End.Offset - s.Start.Offset
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%s-%s", s.File, s.Start, s.End)
}

func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start.Offset < s.Start.Offset {
		s.Start = other.Start
	}
	if other.End.Offset > s.End.Offset {
		s.End = other.End
	}
	return s
}
