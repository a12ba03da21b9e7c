package lexer

import (
	"strings"

	"schemelex/internal/token"
)

// scanString reads a "..." literal and returns its unescaped content.
// A backslash takes the next character verbatim; a raw newline ends the
// literal unsuccessfully.
func (lx *Lexer) scanString() (token.Token, *Error) {
	pos := lx.src.Pos()
	lx.src.Consume() // opening '"'

	var sb strings.Builder
	for {
		r, ok := lx.src.Consume()
		if !ok {
			break
		}
		if r == '\\' {
			next, ok := lx.src.Consume()
			if !ok {
				break
			}
			sb.WriteRune(next)
			continue
		}
		if r == '\n' {
			break
		}
		if r == '"' {
			return token.Token{Kind: token.StringLit, Pos: pos, Text: sb.String()}, nil
		}
		sb.WriteRune(r)
	}
	return token.Token{}, lx.errAt(UnterminatedString, pos, sb.String())
}
