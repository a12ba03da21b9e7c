package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"schemelex/internal/diag"
	"schemelex/internal/source"
)

type palette struct {
	err, warn, info *color.Color
	code, loc, gut  *color.Color
	caret, note     *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:   color.New(color.FgRed, color.Bold),
		warn:  color.New(color.FgYellow, color.Bold),
		info:  color.New(color.FgCyan, color.Bold),
		code:  color.New(color.Bold),
		loc:   color.New(color.Bold),
		gut:   color.New(color.FgBlue),
		caret: color.New(color.FgRed, color.Bold),
		note:  color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.loc, p.gut, p.caret, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes с аналогичным форматом.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		if err := prettyOne(w, d, fs, opts, p); err != nil {
			return err
		}
	}
	return nil
}

func prettyOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) error {
	f := fs.Get(d.Primary.File)
	loc := formatPath(f, fs, opts.PathMode)
	if d.Primary.Start.IsValid() {
		loc = fmt.Sprintf("%s:%d:%d", loc, d.Primary.Start.Line, d.Primary.Start.Col)
	}
	if _, err := fmt.Fprintf(w, "%s: %s %s: %s\n",
		p.loc.Sprint(loc),
		p.severity(d.Severity).Sprint(d.Severity.String()),
		p.code.Sprint(d.Code.ID()),
		d.Message,
	); err != nil {
		return err
	}

	if err := writeSnippet(w, f, d.Primary, opts.Context, p); err != nil {
		return err
	}

	if opts.ShowNotes {
		for _, n := range d.Notes {
			if _, err := fmt.Fprintf(w, "  %s %s\n", p.note.Sprint("note:"), n.Msg); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeSnippet печатает строку с ошибкой (и context строк до неё) и каретку под span.
// Для потоковых файлов содержимое не хранится, сниппет пропускается.
func writeSnippet(w io.Writer, f *source.File, span source.Span, context int8, p palette) error {
	if f == nil || len(f.Content) == 0 || !span.Start.IsValid() {
		return nil
	}
	line := span.Start.Line
	first := line
	for c := int8(0); c < context && first > 1; c++ {
		first--
	}
	gutter := len(fmt.Sprint(line))

	for n := first; n <= line; n++ {
		if _, err := fmt.Fprintf(w, "%s %s\n", p.gut.Sprintf("%*d |", gutter, n), f.Line(n)); err != nil {
			return err
		}
	}

	text := f.Line(line)
	pad, width := caretLayout(text, span)
	marker := "^" + strings.Repeat("~", width-1)
	_, err := fmt.Fprintf(w, "%s %s%s\n", p.gut.Sprintf("%*s |", gutter, ""), pad, p.caret.Sprint(marker))
	return err
}

// caretLayout returns the indentation before the caret and the underline width in cells.
// Tabs are kept so the caret lines up with the printed source line.
func caretLayout(text string, span source.Span) (string, int) {
	var pad strings.Builder
	width := 0
	col := uint32(1)
	for _, r := range text {
		switch {
		case col < span.Start.Col:
			if r == '\t' {
				pad.WriteByte('\t')
			} else {
				pad.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
			}
		case span.End.Line == span.Start.Line && col >= span.End.Col:
			return pad.String(), max(width, 1)
		default:
			width += max(runewidth.RuneWidth(r), 1)
		}
		col++
	}
	return pad.String(), max(width, 1)
}
