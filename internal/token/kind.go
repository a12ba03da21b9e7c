package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota

	// LParen represents the left parenthesis delimiter.
	LParen // (
	// RParen represents the right parenthesis delimiter.
	RParen // )

	// Comment represents a ';' line comment, marker included.
	Comment
	// StringLit represents a double-quoted string literal.
	StringLit
	// IntLit represents a numeric literal without a '.'.
	IntLit
	// FloatLit represents a numeric literal with exactly one '.'.
	FloatLit
	// Ident represents a bare symbol.
	Ident
)

func (k Kind) String() string {
	switch k {
	case LParen:
		return "LParen"
	case RParen:
		return "RParen"
	case Comment:
		return "Comment"
	case StringLit:
		return "StringLit"
	case IntLit:
		return "IntLit"
	case FloatLit:
		return "FloatLit"
	case Ident:
		return "Ident"
	default:
		return "Invalid"
	}
}
