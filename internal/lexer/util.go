package lexer

import (
	"strings"
	"unicode"
)

// ===== Классификаторы =====

// identForbidden — символы, недопустимые внутри идентификатора.
const identForbidden = "[]{}()|\\/'\"#,"

func isDec(r rune) bool { return r >= '0' && r <= '9' }

func isNumberStart(r rune) bool {
	return isDec(r) || r == '-' || r == '.'
}

// ASCII-диапазон 'A'..'z' (включает [ \ ] ^ _ `)
func isIdentStart(r rune) bool {
	return r >= 'A' && r <= 'z'
}

func isIdentForbidden(r rune) bool {
	return strings.ContainsRune(identForbidden, r)
}

func (lx *Lexer) skipWhitespace() {
	for {
		r, ok := lx.src.Peek()
		if !ok || !unicode.IsSpace(r) {
			return
		}
		lx.src.Consume()
	}
}
