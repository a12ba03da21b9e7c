package lexer

import (
	"io"
	"log/slog"

	"schemelex/internal/source"
	"schemelex/internal/token"
)

// Lexer pulls tokens one at a time from a character source it owns exclusively.
// It keeps no state between calls besides the source itself.
type Lexer struct {
	src  source.Source
	opts Options
	log  *slog.Logger
}

// New wraps src. The caller must not read from src afterwards.
func New(src source.Source, opts Options) *Lexer {
	return &Lexer{
		src:  src,
		opts: opts,
		log:  opts.logger(),
	}
}

// NewBuffer creates a lexer over an in-memory buffer.
func NewBuffer(content []byte, opts Options) *Lexer {
	return New(source.NewBuffer(content), opts)
}

// NewString creates a lexer over s.
func NewString(s string, opts Options) *Lexer {
	return New(source.NewBufferString(s), opts)
}

// NewReader creates a lexer streaming from r.
func NewReader(r io.Reader, opts Options) *Lexer {
	return New(source.NewStream(r), opts)
}

// Pos returns the position of the next unconsumed character.
func (lx *Lexer) Pos() source.Position {
	return lx.src.Pos()
}

// Next возвращает следующий токен либо *Error.
// По исчерпании ввода всегда возвращает ошибку вида EndOfInput.
func (lx *Lexer) Next() (token.Token, error) {
	// 1) пропускаем пробельные символы
	lx.skipWhitespace()

	// 2) конец ввода
	ch, ok := lx.src.Peek()
	if !ok {
		pos := lx.src.Pos()
		return token.Token{}, lx.fail(&Error{Kind: EndOfInput, Pos: pos, End: pos})
	}

	// 3) выбираем сканер по непотреблённому символу
	var (
		tok token.Token
		err *Error
	)
	switch {
	case ch == '(':
		tok = lx.scanDelim(token.LParen)
	case ch == ')':
		tok = lx.scanDelim(token.RParen)
	case ch == ';':
		tok = lx.scanComment()
	case ch == '"':
		tok, err = lx.scanString()
	case isNumberStart(ch):
		tok, err = lx.scanNumber()
	case isIdentStart(ch):
		tok, err = lx.scanIdent()
	default:
		// символ не потребляем: вызывающий может посмотреть на него сам
		pos := lx.src.Pos()
		err = &Error{Kind: InvalidCharacter, Pos: pos, End: pos, Char: ch}
	}
	if err != nil {
		return token.Token{}, lx.fail(err)
	}

	lx.log.Debug("token", "kind", tok.Kind, "pos", tok.Pos, "text", tok.Text)
	return tok, nil
}

// errAt builds a malformed-token error that started at start and stopped at the current position.
func (lx *Lexer) errAt(kind ErrorKind, start source.Position, text string) *Error {
	return &Error{Kind: kind, Pos: start, End: lx.src.Pos(), Text: text}
}

func (lx *Lexer) fail(err *Error) error {
	if err.Kind != EndOfInput {
		lx.report(err)
		lx.log.Debug("lex error", "kind", err.Kind, "pos", err.Pos, "text", err.Text)
	}
	return err
}
