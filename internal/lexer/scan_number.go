package lexer

import (
	"strings"
	"unicode"

	"schemelex/internal/token"
)

// scanNumber reads [-]digits with at most one '.', anywhere.
// The terminating whitespace is consumed; end of input also terminates.
// Any other character fails the literal and is included in the error text.
func (lx *Lexer) scanNumber() (token.Token, *Error) {
	pos := lx.src.Pos()
	var sb strings.Builder
	float := false

	if r, _ := lx.src.Peek(); r == '-' {
		lx.src.Consume()
		sb.WriteByte('-')
	}

loop:
	for {
		r, ok := lx.src.Consume()
		if !ok {
			break
		}
		sb.WriteRune(r)
		switch {
		case isDec(r):
		case r == '.':
			if float {
				return token.Token{}, lx.errAt(InvalidFloat, pos, sb.String())
			}
			float = true
		case unicode.IsSpace(r):
			break loop
		default:
			kind := InvalidInteger
			if float {
				kind = InvalidFloat
			}
			return token.Token{}, lx.errAt(kind, pos, sb.String())
		}
	}

	kind := token.IntLit
	if float {
		kind = token.FloatLit
	}
	return token.Token{Kind: kind, Pos: pos, Text: strings.TrimSpace(sb.String())}, nil
}
