package lexer

import (
	"errors"
	"fmt"

	"schemelex/internal/diag"
	"schemelex/internal/source"
)

// ErrorKind classifies a lexer error.
type ErrorKind uint8

const (
	// EndOfInput signals that no characters remain. It ends the token loop and is not a fault.
	EndOfInput ErrorKind = iota
	// InvalidCharacter: the lookahead cannot start any token. It is left unconsumed.
	InvalidCharacter
	// UnterminatedString: input or line ended before the closing quote.
	UnterminatedString
	// InvalidIdentifier: a disallowed character appeared inside an identifier.
	InvalidIdentifier
	// InvalidInteger: a non-digit appeared inside a number without a '.'.
	InvalidInteger
	// InvalidFloat: a non-digit or a second '.' appeared inside a number with a '.'.
	InvalidFloat
)

func (k ErrorKind) String() string {
	switch k {
	case EndOfInput:
		return "end of input"
	case InvalidCharacter:
		return "invalid character"
	case UnterminatedString:
		return "unterminated string"
	case InvalidIdentifier:
		return "invalid identifier"
	case InvalidInteger:
		return "invalid integer"
	case InvalidFloat:
		return "invalid float"
	default:
		return "unknown lexer error"
	}
}

// Code maps the kind to its diagnostic code.
func (k ErrorKind) Code() diag.Code {
	switch k {
	case InvalidCharacter:
		return diag.LexUnknownChar
	case UnterminatedString:
		return diag.LexUnterminatedString
	case InvalidIdentifier:
		return diag.LexBadIdentifier
	case InvalidInteger:
		return diag.LexBadInteger
	case InvalidFloat:
		return diag.LexBadFloat
	default:
		return diag.LexInfo
	}
}

// Error is returned by Lexer.Next for malformed tokens and at end of input.
type Error struct {
	Kind ErrorKind
	// Pos is where the failing token (or end of input) starts.
	Pos source.Position
	// End is where scanning stopped.
	End source.Position
	// Char is the offending character of an InvalidCharacter error.
	Char rune
	// Text is the partial lexeme scanned before the failure.
	Text string
}

func (e *Error) Error() string {
	switch e.Kind {
	case EndOfInput:
		return fmt.Sprintf("%s: end of input", e.Pos)
	case InvalidCharacter:
		return fmt.Sprintf("%s: invalid character %q", e.Pos, e.Char)
	default:
		return fmt.Sprintf("%s: %s %q", e.Pos, e.Kind, e.Text)
	}
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrEndOfInput         = &Error{Kind: EndOfInput}
	ErrInvalidCharacter   = &Error{Kind: InvalidCharacter}
	ErrUnterminatedString = &Error{Kind: UnterminatedString}
	ErrInvalidIdentifier  = &Error{Kind: InvalidIdentifier}
	ErrInvalidInteger     = &Error{Kind: InvalidInteger}
	ErrInvalidFloat       = &Error{Kind: InvalidFloat}
)

// IsEnd reports whether err signals end of input.
func IsEnd(err error) bool {
	return errors.Is(err, ErrEndOfInput)
}

func (e *Error) message() string {
	if e.Kind == InvalidCharacter {
		return fmt.Sprintf("invalid character %q", e.Char)
	}
	if e.Text == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s %q", e.Kind, e.Text)
}
