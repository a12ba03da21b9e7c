package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"schemelex/internal/diag"
	"schemelex/internal/lexer"
	"schemelex/internal/observ"
	"schemelex/internal/source"
	"schemelex/internal/token"
)

// ctxCheckEvery is how many tokens are scanned between context checks.
const ctxCheckEvery = 1024

type TokenizeResult struct {
	RunID   string
	FileSet *source.FileSet
	File    *source.File
	Tokens  []token.Token
	// Err is the first malformed-token error, nil when the input ended cleanly.
	Err    error
	Bag    *diag.Bag
	Timing *observ.Report
	Cached bool
}

// Tokenize читает файл по пути path и собирает его токены.
// Ошибка возвращается только если файл не удалось открыть или прочитать целиком;
// ошибки лексера попадают в Result.Err и в Bag.
func Tokenize(ctx context.Context, path string, opts Options) (*TokenizeResult, error) {
	return tokenizeFile(ctx, source.NewFileSet(), path, opts, newRunID(), nil)
}

// TokenizeReader streams tokens from r; name labels the input in diagnostics.
// Used for stdin, which can only be read once.
func TokenizeReader(ctx context.Context, name string, r io.Reader, opts Options) (*TokenizeResult, error) {
	runID := newRunID()
	log := opts.logger().With("run", runID, "file", name)
	fs := source.NewFileSet()
	timer := newTimer(opts)

	fileID := fs.AddStream(name)
	bag := diag.NewBag(opts.maxDiagnostics())
	src := source.NewTextStream(r)

	done := timer.Track("scan")
	tokens, lexErr, err := scan(ctx, lexer.New(src, lexerOptions(fileID, bag, log)), opts.KeepGoing)
	done(len(tokens), "tokens")
	if err != nil {
		return nil, err
	}
	reportReadError(bag, fileID, src)

	res := &TokenizeResult{
		RunID:   runID,
		FileSet: fs,
		File:    fs.Get(fileID),
		Tokens:  tokens,
		Err:     lexErr,
		Bag:     bag,
	}
	finish(res, timer, name, log)
	return res, nil
}

// tokenizeFile is shared by Tokenize and TokenizeDir. When fileID is non-nil the file is
// already registered in fs (TokenizeDir preloads sequentially) and must not be added again.
func tokenizeFile(ctx context.Context, fs *source.FileSet, path string, opts Options, runID string, preloaded *source.FileID) (*TokenizeResult, error) {
	log := opts.logger().With("run", runID, "file", path)
	timer := newTimer(opts)
	bag := diag.NewBag(opts.maxDiagnostics())
	res := &TokenizeResult{RunID: runID, FileSet: fs, Bag: bag}

	emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusWorking})
	log.Debug("tokenize start", "mode", opts.Mode)

	var err error
	switch opts.Mode {
	case ModeStream:
		err = tokenizeStream(ctx, res, path, opts, timer, log, preloaded)
	default:
		err = tokenizeBuffer(ctx, res, path, opts, timer, log, preloaded)
	}
	if err != nil {
		emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusError, Err: err})
		return nil, err
	}

	finish(res, timer, path, log)
	status := StatusDone
	if bag.HasErrors() {
		status = StatusError
	}
	emit(opts.Progress, Event{
		File:   path,
		Stage:  StageScan,
		Status: status,
		Err:    res.Err,
		Tokens: len(res.Tokens),
		Cached: res.Cached,
	})
	return res, nil
}

func tokenizeBuffer(ctx context.Context, res *TokenizeResult, path string, opts Options, timer *observ.Timer, log *slog.Logger, preloaded *source.FileID) error {
	var fileID source.FileID
	if preloaded != nil {
		fileID = *preloaded
	} else {
		done := timer.Track("load")
		id, err := res.FileSet.Load(path, source.LoadOptions{NormalizeNFC: opts.NormalizeNFC})
		if err != nil {
			done(0, "")
			return fmt.Errorf("load %s: %w", path, err)
		}
		done(len(res.FileSet.Get(id).Content), "bytes")
		fileID = id
	}
	file := res.FileSet.Get(fileID)
	res.File = file

	key := cacheKey(file.Hash, opts.KeepGoing, res.Bag.Cap())
	if opts.Cache != nil {
		var payload CachePayload
		hit, err := opts.Cache.Get(key, &payload)
		if err != nil {
			log.Warn("token cache read failed", "err", err)
		}
		if hit {
			res.Tokens, res.Err = fromPayload(&payload, fileID, res.Bag)
			res.Cached = true
			log.Debug("token cache hit", "tokens", len(res.Tokens))
			return nil
		}
	}

	emit(opts.Progress, Event{File: path, Stage: StageScan, Status: StatusWorking})
	done := timer.Track("scan")
	tokens, lexErr, err := scan(ctx, lexer.NewBuffer(file.Content, lexerOptions(fileID, res.Bag, log)), opts.KeepGoing)
	done(len(tokens), "tokens")
	if err != nil {
		return err
	}
	res.Tokens, res.Err = tokens, lexErr

	if opts.Cache != nil {
		if err := opts.Cache.Put(key, toPayload(tokens, lexErr, res.Bag)); err != nil {
			log.Warn("token cache write failed", "err", err)
		}
	}
	return nil
}

func tokenizeStream(ctx context.Context, res *TokenizeResult, path string, opts Options, timer *observ.Timer, log *slog.Logger, preloaded *source.FileID) (err error) {
	// #nosec G304 -- path is provided by the caller
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	var fileID source.FileID
	if preloaded != nil {
		fileID = *preloaded
	} else {
		fileID = res.FileSet.AddStream(path)
	}
	res.File = res.FileSet.Get(fileID)

	emit(opts.Progress, Event{File: path, Stage: StageScan, Status: StatusWorking})
	src := source.NewTextStream(f)
	done := timer.Track("scan")
	tokens, lexErr, err := scan(ctx, lexer.New(src, lexerOptions(fileID, res.Bag, log)), opts.KeepGoing)
	done(len(tokens), "tokens")
	if err != nil {
		return err
	}
	res.Tokens, res.Err = tokens, lexErr
	reportReadError(res.Bag, fileID, src)
	return nil
}

// scan collects tokens until end of input. Without keepGoing it stops at the first
// malformed token; with it the lexer resynchronises and scanning continues.
// The first lexer error is returned as lexErr; err is only set when ctx is cancelled.
func scan(ctx context.Context, lx *lexer.Lexer, keepGoing bool) (tokens []token.Token, lexErr, err error) {
	for n := 0; ; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return tokens, lexErr, err
			}
		}
		tok, nextErr := lx.Next()
		if nextErr == nil {
			tokens = append(tokens, tok)
			continue
		}
		if lexer.IsEnd(nextErr) {
			return tokens, lexErr, nil
		}
		if lexErr == nil {
			lexErr = nextErr
		}
		if !keepGoing {
			return tokens, lexErr, nil
		}
		lx.Resync(nextErr)
	}
}

func lexerOptions(fileID source.FileID, bag *diag.Bag, log *slog.Logger) lexer.Options {
	adapter := &lexer.ReporterAdapter{Bag: bag}
	return lexer.Options{
		File:     fileID,
		Reporter: adapter.Reporter(),
		Logger:   log,
	}
}

// reportReadError turns a failed read of a streamed input into an IO4002 diagnostic
// at the position where the input was cut short.
func reportReadError(bag *diag.Bag, fileID source.FileID, src *source.Stream) {
	readErr := src.Err()
	if readErr == nil || errors.Is(readErr, io.EOF) {
		return
	}
	span := source.SpanAt(fileID, src.Pos())
	diag.ReportError(diag.BagReporter{Bag: bag}, diag.IOReadError, span, "read failed: "+readErr.Error()).
		WithNote(span, "tokens after this point were not scanned").
		Emit()
}

func newTimer(opts Options) *observ.Timer {
	if !opts.Timings {
		return nil
	}
	return observ.NewTimer()
}

func finish(res *TokenizeResult, timer *observ.Timer, path string, log *slog.Logger) {
	if timer != nil {
		report := timer.Report()
		res.Timing = &report
		appendTimingDiagnostic(res.Bag, timingPayload{
			Kind:    "tokenize",
			Path:    path,
			TotalMS: report.TotalMS,
			Phases:  report.Phases,
		})
	}
	log.Debug("tokenize done", "tokens", len(res.Tokens), "diagnostics", res.Bag.Len(), "cached", res.Cached)
}
