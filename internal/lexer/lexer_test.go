package lexer_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"testing/iotest"

	"schemelex/internal/diag"
	"schemelex/internal/lexer"
	"schemelex/internal/source"
	"schemelex/internal/token"
)

// testReporter собирает все диагностики, полученные от лексера
type testReporter struct {
	diagnostics []diag.Diagnostic
}

func (r *testReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	r.diagnostics = append(r.diagnostics, diag.Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  msg,
		Primary:  primary,
		Notes:    notes,
	})
}

// ErrorMessages возвращает список сообщений об ошибках
func (r *testReporter) ErrorMessages() []string {
	messages := make([]string, 0, len(r.diagnostics))
	for _, d := range r.diagnostics {
		messages = append(messages, fmt.Sprintf("[%s] %s: %s", d.Code.ID(), d.Severity, d.Message))
	}
	return messages
}

// makeTestLexer создаёт лексер для тестовой строки
func makeTestLexer(input string) (*lexer.Lexer, *testReporter) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.scm", []byte(input))
	file := fs.Get(fileID)

	reporter := &testReporter{}
	opts := lexer.Options{File: fileID, Reporter: reporter}
	return lexer.NewBuffer(file.Content, opts), reporter
}

// collectAllTokens собирает токены до первой ошибки (включая конец ввода)
func collectAllTokens(lx *lexer.Lexer) ([]token.Token, error) {
	tokens := make([]token.Token, 0)
	for {
		tok, err := lx.Next()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
	}
}

func tok(kind token.Kind, text string, line, col uint32) token.Token {
	return token.Token{Kind: kind, Text: text, Pos: source.Position{Line: line, Col: col}}
}

// sameToken сравнивает вид, текст и line:col (смещение не учитывается)
func sameToken(a, b token.Token) bool {
	return a.Kind == b.Kind && a.Text == b.Text && a.Pos.Line == b.Pos.Line && a.Pos.Col == b.Pos.Col
}

func tokensToString(tokens []token.Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = fmt.Sprintf("%v(%q)@%s", t.Kind, t.Text, t.Pos)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// expectSingleToken проверяет первый токен входа
func expectSingleToken(t *testing.T, input string, kind token.Kind, text string) {
	t.Helper()
	lx, reporter := makeTestLexer(input)
	got, err := lx.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v (diagnostics: %v)", err, reporter.ErrorMessages())
	}
	if got.Kind != kind {
		t.Errorf("Expected kind %v, got %v", kind, got.Kind)
	}
	if got.Text != text {
		t.Errorf("Expected text %q, got %q", text, got.Text)
	}
	if got.Pos.Line != 1 || got.Pos.Col != 1 {
		t.Errorf("Expected position 1:1, got %s", got.Pos)
	}
}

// expectError проверяет, что первый вызов Next возвращает ошибку заданного вида
func expectError(t *testing.T, input string, kind lexer.ErrorKind, text string, line, col uint32) *lexer.Error {
	t.Helper()
	lx, _ := makeTestLexer(input)
	got, err := lx.Next()
	if err == nil {
		t.Fatalf("expected %v error, got token %v(%q)", kind, got.Kind, got.Text)
	}
	var lexErr *lexer.Error
	if !errors.As(err, &lexErr) {
		t.Fatalf("expected *lexer.Error, got %T", err)
	}
	if lexErr.Kind != kind {
		t.Errorf("Expected error kind %v, got %v", kind, lexErr.Kind)
	}
	if lexErr.Text != text {
		t.Errorf("Expected error text %q, got %q", text, lexErr.Text)
	}
	if lexErr.Pos.Line != line || lexErr.Pos.Col != col {
		t.Errorf("Expected error at %d:%d, got %s", line, col, lexErr.Pos)
	}
	return lexErr
}

// ====== Разделители и комментарии ======

func TestDelimiters(t *testing.T) {
	expectSingleToken(t, "(", token.LParen, "")
	expectSingleToken(t, ")", token.RParen, "")
}

func TestComment(t *testing.T) {
	expectSingleToken(t, "; this is some code that does some stuff", token.Comment, "; this is some code that does some stuff")
	expectSingleToken(t, ";   padded   \nnext", token.Comment, ";   padded")
}

func TestComment_ConsumesNewline(t *testing.T) {
	lx, _ := makeTestLexer("; c\nfoo")
	if _, err := lx.Next(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos := lx.Pos(); pos.Line != 2 || pos.Col != 1 {
		t.Errorf("expected 2:1 after comment, got %s", pos)
	}
}

// ====== Строки ======

func TestString_Escapes(t *testing.T) {
	expectSingleToken(t, "\"\\\"Hello\\\", world!\\\n\"", token.StringLit, "\"Hello\", world!\n")
	expectSingleToken(t, `"a\\b"`, token.StringLit, `a\b`)
	expectSingleToken(t, `"\n"`, token.StringLit, "n")
	expectSingleToken(t, `""`, token.StringLit, "")
}

func TestString_Unterminated(t *testing.T) {
	expectError(t, "\"This is an unterminated string ()", lexer.UnterminatedString, "This is an unterminated string ()", 1, 1)
}

func TestString_UnterminatedMultiline(t *testing.T) {
	expectError(t, "\n \n \"This is an \\\n unterminated string ()", lexer.UnterminatedString, "This is an \n unterminated string ()", 3, 2)
}

func TestString_RawNewlineTerminates(t *testing.T) {
	expectError(t, "\"abc\ndef\"", lexer.UnterminatedString, "abc", 1, 1)
}

func TestString_TrailingBackslash(t *testing.T) {
	expectError(t, `"abc\`, lexer.UnterminatedString, "abc", 1, 1)
}

// ====== Числа ======

func TestNumbers(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
		text  string
	}{
		{"12345", token.IntLit, "12345"},
		{"-12345", token.IntLit, "-12345"},
		{"12345 ", token.IntLit, "12345"},
		{"12345.", token.FloatLit, "12345."},
		{"12345.0", token.FloatLit, "12345.0"},
		{".12345", token.FloatLit, ".12345"},
		{"12345.12345", token.FloatLit, "12345.12345"},
		{"12345.123450", token.FloatLit, "12345.123450"},
		{"-.12345", token.FloatLit, "-.12345"},
		{"-12345.12345", token.FloatLit, "-12345.12345"},
		{"-", token.IntLit, "-"},
		{".", token.FloatLit, "."},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expectSingleToken(t, tt.input, tt.kind, tt.text)
		})
	}
}

func TestNumbers_Invalid(t *testing.T) {
	tests := []struct {
		input string
		kind  lexer.ErrorKind
		text  string
	}{
		{"12f345", lexer.InvalidInteger, "12f"},
		{"12f345.12345", lexer.InvalidInteger, "12f"},
		{"12345.12f345", lexer.InvalidFloat, "12345.12f"},
		{"1.2.3", lexer.InvalidFloat, "1.2."},
		{"1)", lexer.InvalidInteger, "1)"},
		{"--1", lexer.InvalidInteger, "--"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expectError(t, tt.input, tt.kind, tt.text, 1, 1)
		})
	}
}

func TestNumber_ConsumesTrailingWhitespace(t *testing.T) {
	lx, _ := makeTestLexer("42\nfoo")
	if _, err := lx.Next(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos := lx.Pos(); pos.Line != 2 || pos.Col != 1 {
		t.Errorf("expected 2:1 after number, got %s", pos)
	}
}

// ====== Идентификаторы ======

func TestIdentifiers(t *testing.T) {
	tests := []struct {
		input string
		text  string
	}{
		{"an-!@$%^&*-+=~?.ident-can-have-all-these-chars", "an-!@$%^&*-+=~?.ident-can-have-all-these-chars"},
		{"foo", "foo"},
		{"so_is", "so_is"},
		{"Zeta", "Zeta"},
		{"_under", "_under"},
		{"^caret", "^caret"},
		{"x<y>z", "x<y>z"},
		{"abc\ndef", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expectSingleToken(t, tt.input, token.Ident, tt.text)
		})
	}
}

func TestIdentifiers_Forbidden(t *testing.T) {
	const pre = "an-ident-cannot-have-"
	for _, c := range "[]{}()|\\/'\"#," {
		input := pre + string(c) + "-as-a-char"
		t.Run(input, func(t *testing.T) {
			expectError(t, input, lexer.InvalidIdentifier, pre, 1, 1)
		})
	}
}

func TestIdentifiers_BracketStart(t *testing.T) {
	// '[' попадает в диапазон 'A'..'z', но запрещён внутри идентификатора
	expectError(t, "[a]", lexer.InvalidIdentifier, "", 1, 1)
}

// ====== Ошибки ======

func TestError_InvalidCharacter(t *testing.T) {
	lx, reporter := makeTestLexer("(    # )")
	if _, err := lx.Next(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := lx.Next()
	var lexErr *lexer.Error
	if !errors.As(err, &lexErr) {
		t.Fatalf("expected *lexer.Error, got %v", err)
	}
	if lexErr.Kind != lexer.InvalidCharacter || lexErr.Char != '#' {
		t.Errorf("expected invalid character '#', got %v %q", lexErr.Kind, lexErr.Char)
	}
	if lexErr.Pos.Line != 1 || lexErr.Pos.Col != 6 {
		t.Errorf("expected error at 1:6, got %s", lexErr.Pos)
	}
	// символ не потреблён
	if pos := lx.Pos(); pos.Col != 6 {
		t.Errorf("invalid character must not be consumed, pos %s", pos)
	}
	if len(reporter.diagnostics) != 1 || reporter.diagnostics[0].Code != diag.LexUnknownChar {
		t.Errorf("expected one LEX1001 diagnostic, got %v", reporter.ErrorMessages())
	}
}

func TestError_NonASCII(t *testing.T) {
	lx, _ := makeTestLexer("λ")
	_, err := lx.Next()
	if !errors.Is(err, lexer.ErrInvalidCharacter) {
		t.Fatalf("expected invalid character, got %v", err)
	}
}

func TestError_EndOfInput(t *testing.T) {
	tests := []struct {
		input     string
		line, col uint32
	}{
		{"", 1, 1},
		{"   ", 1, 4},
		{" \n\t", 2, 2},
		{")", 1, 2},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			lx, reporter := makeTestLexer(tt.input)
			_, err := collectAllTokens(lx)
			if !lexer.IsEnd(err) {
				t.Fatalf("expected end of input, got %v", err)
			}
			var lexErr *lexer.Error
			if !errors.As(err, &lexErr) {
				t.Fatalf("expected *lexer.Error, got %T", err)
			}
			if lexErr.Pos.Line != tt.line || lexErr.Pos.Col != tt.col {
				t.Errorf("expected end at %d:%d, got %s", tt.line, tt.col, lexErr.Pos)
			}
			if len(reporter.diagnostics) != 0 {
				t.Errorf("end of input must not be reported: %v", reporter.ErrorMessages())
			}
		})
	}
}

func TestError_EndIsSticky(t *testing.T) {
	lx, _ := makeTestLexer("x")
	if _, err := lx.Next(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for range 3 {
		if _, err := lx.Next(); !lexer.IsEnd(err) {
			t.Fatalf("expected end of input, got %v", err)
		}
	}
}

func TestError_Sentinels(t *testing.T) {
	err := &lexer.Error{Kind: lexer.InvalidFloat, Text: "1.2."}
	if !errors.Is(err, lexer.ErrInvalidFloat) {
		t.Errorf("errors.Is must match by kind")
	}
	if errors.Is(err, lexer.ErrInvalidInteger) {
		t.Errorf("errors.Is must not match other kinds")
	}
	if lexer.IsEnd(err) {
		t.Errorf("IsEnd must be false for %v", err)
	}
	if got := lexer.InvalidFloat.Code(); got != diag.LexBadFloat {
		t.Errorf("unexpected code %v", got)
	}
}

func TestReporter_Spans(t *testing.T) {
	lx, reporter := makeTestLexer("  12f")
	_, err := lx.Next()
	if err == nil {
		t.Fatal("expected error")
	}
	if len(reporter.diagnostics) != 1 {
		t.Fatalf("expected one diagnostic, got %v", reporter.ErrorMessages())
	}
	d := reporter.diagnostics[0]
	if d.Code != diag.LexBadInteger || d.Severity != diag.SevError {
		t.Errorf("unexpected diagnostic %v", reporter.ErrorMessages())
	}
	if d.Primary.Start.Col != 3 || d.Primary.End.Col != 6 {
		t.Errorf("unexpected span %s", d.Primary)
	}
}

// ====== Полный вход ======

func TestReadAll(t *testing.T) {
	input := "; hello, this is a comment \n" +
		"(\"this is a \\\"string\\\" with some escape chars\") \n" +
		"(   ) ; this is a comment after something on a line \n" +
		"(               ( \"s p a c e\" ) ; space \n" +
		"12345 is-a-number so_is -78.910 \n"

	expected := []token.Token{
		tok(token.Comment, "; hello, this is a comment", 1, 1),
		tok(token.LParen, "", 2, 1),
		tok(token.StringLit, "this is a \"string\" with some escape chars", 2, 2),
		tok(token.RParen, "", 2, 47),
		tok(token.LParen, "", 3, 1),
		tok(token.RParen, "", 3, 5),
		tok(token.Comment, "; this is a comment after something on a line", 3, 7),
		tok(token.LParen, "", 4, 1),
		tok(token.LParen, "", 4, 17),
		tok(token.StringLit, "s p a c e", 4, 19),
		tok(token.RParen, "", 4, 31),
		tok(token.Comment, "; space", 4, 33),
		tok(token.IntLit, "12345", 5, 1),
		tok(token.Ident, "is-a-number", 5, 7),
		tok(token.Ident, "so_is", 5, 19),
		tok(token.FloatLit, "-78.910", 5, 25),
	}

	lx, reporter := makeTestLexer(input)
	tokens, err := collectAllTokens(lx)
	if !lexer.IsEnd(err) {
		t.Fatalf("expected end of input, got %v (diagnostics: %v)", err, reporter.ErrorMessages())
	}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d\nTokens: %v", len(expected), len(tokens), tokensToString(tokens))
	}
	for i := range tokens {
		if !sameToken(tokens[i], expected[i]) {
			t.Errorf("Token %d: expected %v, got %v", i, tokensToString(expected[i:i+1]), tokensToString(tokens[i:i+1]))
		}
	}
}

func TestEndToEnd(t *testing.T) {
	input := "; hello, this is a comment\n" +
		"(\"this is a \\\"string\\\" with some escape chars\")\n" +
		"(   ) ; trailing comment\n"
	want := []token.Kind{
		token.Comment, token.LParen, token.StringLit, token.RParen,
		token.LParen, token.RParen, token.Comment,
	}

	tokens, err := lexer.Tokenize(lexer.NewString(input, lexer.Options{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != len(want) {
		t.Fatalf("Expected %d tokens, got %v", len(want), tokensToString(tokens))
	}
	for i, k := range want {
		if tokens[i].Kind != k {
			t.Errorf("Token %d: expected %v, got %v", i, k, tokens[i].Kind)
		}
	}
	if tokens[6].Text != "; trailing comment" {
		t.Errorf("unexpected comment text %q", tokens[6].Text)
	}
}

func TestTokenize_StopsAtError(t *testing.T) {
	tokens, err := lexer.Tokenize(lexer.NewString("(foo 1x)", lexer.Options{}))
	if !errors.Is(err, lexer.ErrInvalidInteger) {
		t.Fatalf("expected invalid integer, got %v", err)
	}
	if len(tokens) != 2 {
		t.Errorf("expected tokens before the error to be kept, got %v", tokensToString(tokens))
	}
}

// ====== Буфер и поток ======

func TestStreamMatchesBuffer(t *testing.T) {
	inputs := []string{
		"(define (sq x) (* x x)) ; square\n(sq 4.5)",
		"\"héllo\" wörld λ",
		"  \n\n-1 -.5 . - \"a\\\"b\"",
		"\"unterminated",
	}

	for _, input := range inputs {
		t.Run(fmt.Sprintf("%q", input), func(t *testing.T) {
			bufTokens, bufErr := collectAllTokens(lexer.NewString(input, lexer.Options{}))
			strTokens, strErr := collectAllTokens(lexer.NewReader(iotest.OneByteReader(strings.NewReader(input)), lexer.Options{}))

			if len(bufTokens) != len(strTokens) {
				t.Fatalf("buffer %v != stream %v", tokensToString(bufTokens), tokensToString(strTokens))
			}
			for i := range bufTokens {
				if bufTokens[i] != strTokens[i] {
					t.Errorf("Token %d: buffer %v, stream %v", i, bufTokens[i], strTokens[i])
				}
			}
			if bufErr.Error() != strErr.Error() {
				t.Errorf("buffer error %v != stream error %v", bufErr, strErr)
			}
		})
	}
}

// ====== Восстановление ======

func TestResync(t *testing.T) {
	tests := []struct {
		input string
		want  []token.Kind
		errs  int
	}{
		{"12f3 foo", []token.Kind{token.Ident}, 1},
		{"#x (a )", []token.Kind{token.LParen, token.Ident, token.RParen}, 1},
		{"(a|b c )", []token.Kind{token.LParen, token.Ident, token.RParen}, 1},
		{"\"open\n(x )", []token.Kind{token.LParen, token.Ident, token.RParen}, 1},
		{"(x)", []token.Kind{token.LParen}, 1},
		{"# # ok", []token.Kind{token.Ident}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lx, reporter := makeTestLexer(tt.input)
			var kinds []token.Kind
			for {
				got, err := lx.Next()
				if lexer.IsEnd(err) {
					break
				}
				if err != nil {
					lx.Resync(err)
					continue
				}
				kinds = append(kinds, got.Kind)
			}
			if fmt.Sprint(kinds) != fmt.Sprint(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, kinds)
			}
			if len(reporter.diagnostics) != tt.errs {
				t.Errorf("expected %d diagnostics, got %v", tt.errs, reporter.ErrorMessages())
			}
		})
	}
}

func TestReporterAdapter_Dedup(t *testing.T) {
	bag := diag.NewBag(10)
	adapter := &lexer.ReporterAdapter{Bag: bag}
	rep := adapter.Reporter()

	for range 2 {
		lx := lexer.NewString("#", lexer.Options{Reporter: rep})
		_, _ = lx.Next()
	}
	if bag.Len() != 1 {
		t.Errorf("expected duplicate diagnostic to be dropped, got %d", bag.Len())
	}
}
