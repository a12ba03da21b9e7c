package lexer

import (
	"log/slog"

	"schemelex/internal/diag"
	"schemelex/internal/source"
)

// Options configures a Lexer. The zero value scans without reporting or logging.
type Options struct {
	// File is stamped on reported spans.
	File source.FileID
	// Reporter может быть nil — тогда ошибки только возвращаются из Next.
	Reporter diag.Reporter
	// Logger receives a debug record per token; nil disables logging.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (lx *Lexer) report(err *Error) {
	if lx.opts.Reporter == nil {
		return
	}
	span := source.Span{File: lx.opts.File, Start: err.Pos, End: err.End}
	diag.ReportError(lx.opts.Reporter, err.Kind.Code(), span, err.message()).Emit()
}
