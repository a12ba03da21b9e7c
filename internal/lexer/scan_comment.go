package lexer

import (
	"strings"

	"schemelex/internal/token"
)

// scanComment читает ';' и всё до конца строки; перевод строки съедается, но в текст не попадает.
func (lx *Lexer) scanComment() token.Token {
	pos := lx.src.Pos()
	var sb strings.Builder
	for {
		r, ok := lx.src.Consume()
		if !ok || r == '\n' {
			break
		}
		sb.WriteRune(r)
	}
	return token.Token{Kind: token.Comment, Pos: pos, Text: strings.TrimSpace(sb.String())}
}
