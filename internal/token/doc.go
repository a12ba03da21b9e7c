// Package token defines lexical token kinds produced by the tokenizer.
// Invariants:
//   - Token.Pos is the position of the token's first character, captured
//     before that character is consumed.
//   - Token.Text is the token payload: trimmed comment text, unescaped string
//     contents, or the verbatim lexeme of numbers and identifiers.
//     Delimiters carry no text.
//   - Numeric text is never converted to a value.
package token
