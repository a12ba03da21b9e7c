package lexer

import (
	"strings"
	"unicode"

	"schemelex/internal/token"
)

// scanIdent читает символ до пробела или конца ввода.
// Запрещённый символ сразу даёт InvalidIdentifier с текстом до него.
func (lx *Lexer) scanIdent() (token.Token, *Error) {
	pos := lx.src.Pos()
	var sb strings.Builder
	for {
		r, ok := lx.src.Consume()
		if !ok || unicode.IsSpace(r) {
			break
		}
		if isIdentForbidden(r) {
			return token.Token{}, lx.errAt(InvalidIdentifier, pos, sb.String())
		}
		sb.WriteRune(r)
	}
	return token.Token{Kind: token.Ident, Pos: pos, Text: sb.String()}, nil
}
