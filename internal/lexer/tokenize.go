package lexer

import (
	"errors"
	"unicode"

	"schemelex/internal/token"
)

// Tokenize collects tokens until end of input. On a malformed token it returns
// the tokens read so far together with the error.
func Tokenize(lx *Lexer) ([]token.Token, error) {
	var tokens []token.Token
	for {
		tok, err := lx.Next()
		if err != nil {
			if IsEnd(err) {
				return tokens, nil
			}
			return tokens, err
		}
		tokens = append(tokens, tok)
	}
}

// Resync moves past the remains of the malformed token that produced err so
// scanning can continue. An invalid character is skipped together with the
// rest of its word; broken identifiers and numbers skip to the next
// whitespace or parenthesis. An unterminated string already stopped at a line
// end and needs nothing.
func (lx *Lexer) Resync(err error) {
	var lexErr *Error
	if !errors.As(err, &lexErr) {
		return
	}
	switch lexErr.Kind {
	case InvalidCharacter:
		lx.src.Consume()
	case InvalidIdentifier, InvalidInteger, InvalidFloat:
	default:
		return
	}
	for {
		r, ok := lx.src.Peek()
		if !ok || unicode.IsSpace(r) || r == '(' || r == ')' {
			return
		}
		lx.src.Consume()
	}
}
