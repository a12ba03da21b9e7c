package token

import (
	"schemelex/internal/source"
)

// Token represents a single source token with its start position.
type Token struct {
	Kind Kind
	Pos  source.Position
	Text string
}

// IsLiteral reports whether the token is a numeric or string literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case StringLit, IntLit, FloatLit:
		return true
	default:
		return false
	}
}

// IsNumber reports whether the token is an integer or float literal.
func (t Token) IsNumber() bool { return t.Kind == IntLit || t.Kind == FloatLit }

// IsDelimiter reports whether the token is a parenthesis.
func (t Token) IsDelimiter() bool { return t.Kind == LParen || t.Kind == RParen }

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }
