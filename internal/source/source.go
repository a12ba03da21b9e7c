package source

// Source supplies characters with one character of lookahead and tracks
// the position of that lookahead.
//
// Peek is idempotent: repeated calls return the same rune until Consume.
// Once the input is exhausted both methods return false and Pos stops moving.
type Source interface {
	// Peek returns the next rune without consuming it.
	Peek() (rune, bool)
	// Consume returns the next rune and advances past it.
	Consume() (rune, bool)
	// Pos returns the position of the next rune.
	Pos() Position
}
