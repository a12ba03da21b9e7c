package lexer

import "schemelex/internal/token"

func (lx *Lexer) scanDelim(kind token.Kind) token.Token {
	pos := lx.src.Pos()
	lx.src.Consume()
	return token.Token{Kind: kind, Pos: pos}
}
