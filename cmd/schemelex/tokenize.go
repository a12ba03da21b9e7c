package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"schemelex/internal/diag"
	"schemelex/internal/diagfmt"
	"schemelex/internal/driver"
	"schemelex/internal/source"
	"schemelex/internal/trace"
)

const (
	stdinPath = "-"
	stdinName = "<stdin>"
	cacheApp  = "schemelex"
)

func newTokenizeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokenize [flags] <file|dir|->",
		Short: "Tokenize Scheme/Lisp source",
		Long:  "Tokenize a file, every .scm/.ss/.lisp file under a directory, or standard input ('-')",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokenize(cmd, a, args[0])
		},
	}

	cmd.Flags().String("format", "pretty", "token output format (pretty|json|yaml|msgpack)")
	cmd.Flags().String("mode", "buffer", "input mode (buffer|stream)")
	cmd.Flags().Int("jobs", 0, "max parallel workers for directories (0=auto)")
	cmd.Flags().String("ui", "auto", "progress UI for directories (auto|on|off)")
	cmd.Flags().Bool("keep-going", false, "resynchronise after a malformed token and keep scanning")
	cmd.Flags().Bool("cache", false, "reuse tokens of unchanged files (buffer mode)")
	cmd.Flags().Bool("normalize-unicode", false, "normalize file content to NFC before scanning")
	cmd.Flags().String("diag-format", "pretty", "diagnostics format (pretty|json)")
	cmd.Flags().Int("context", 0, "source lines of context shown before a diagnostic (0-10)")

	return cmd
}

// tokenizeSettings is the merged view of flags and schemelex.toml.
type tokenizeSettings struct {
	format     string
	diagFormat string
	ui         uiMode
	color      bool
	quiet      bool
	context    int
	opts       driver.Options
}

func readTokenizeSettings(cmd *cobra.Command, a *app) (tokenizeSettings, error) {
	var s tokenizeSettings
	cfg := a.cfg

	format, err := stringSetting(cmd, "format", cfg.Tokenize.Format)
	if err != nil {
		return s, err
	}
	s.format = strings.ToLower(format)
	switch s.format {
	case "pretty", "json", "yaml", "msgpack":
	default:
		return s, fmt.Errorf("unknown format %q (expected pretty|json|yaml|msgpack)", format)
	}

	diagFormat, err := cmd.Flags().GetString("diag-format")
	if err != nil {
		return s, fmt.Errorf("failed to get diag-format flag: %w", err)
	}
	s.diagFormat = strings.ToLower(diagFormat)
	if s.diagFormat != "pretty" && s.diagFormat != "json" {
		return s, fmt.Errorf("unknown diag-format %q (expected pretty|json)", diagFormat)
	}

	modeStr, err := stringSetting(cmd, "mode", cfg.Tokenize.Mode)
	if err != nil {
		return s, err
	}
	mode, err := driver.ParseMode(modeStr)
	if err != nil {
		return s, err
	}

	jobs, err := intSetting(cmd, "jobs", cfg.Tokenize.Jobs)
	if err != nil {
		return s, err
	}
	if jobs < 0 {
		return s, fmt.Errorf("--jobs must not be negative")
	}

	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return s, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if s.ui, err = readUIMode(uiValue); err != nil {
		return s, err
	}

	keepGoing, err := boolSetting(cmd, "keep-going", cfg.Tokenize.KeepGoing)
	if err != nil {
		return s, err
	}
	useCache, err := boolSetting(cmd, "cache", cfg.Tokenize.Cache)
	if err != nil {
		return s, err
	}
	normalize, err := boolSetting(cmd, "normalize-unicode", cfg.Tokenize.NormalizeUnicode)
	if err != nil {
		return s, err
	}

	maxDiags, err := intSetting(cmd, "max-diagnostics", cfg.Diagnostics.Max)
	if err != nil {
		return s, err
	}
	timings, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return s, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if s.quiet, err = cmd.Flags().GetBool("quiet"); err != nil {
		return s, fmt.Errorf("failed to get quiet flag: %w", err)
	}

	colorValue, err := stringSetting(cmd, "color", cfg.Diagnostics.Color)
	if err != nil {
		return s, err
	}
	if s.color, err = readColorMode(colorValue, cmd.ErrOrStderr()); err != nil {
		return s, err
	}
	if s.context, err = intSetting(cmd, "context", cfg.Diagnostics.Context); err != nil {
		return s, err
	}
	if s.context < 0 || s.context > 10 {
		return s, fmt.Errorf("--context must be between 0 and 10")
	}

	s.opts = driver.Options{
		Mode:           mode,
		MaxDiagnostics: maxDiags,
		Jobs:           jobs,
		KeepGoing:      keepGoing,
		NormalizeNFC:   normalize,
		Timings:        timings,
		Logger:         trace.FromContext(cmd.Context()),
	}
	if useCache {
		if mode == driver.ModeStream {
			s.opts.Logger.Debug("token cache ignored in stream mode")
		} else {
			cache, err := driver.OpenTokenCache(cacheApp)
			if err != nil {
				return s, fmt.Errorf("failed to open token cache: %w", err)
			}
			s.opts.Cache = cache
		}
	}
	return s, nil
}

func runTokenize(cmd *cobra.Command, a *app, path string) error {
	s, err := readTokenizeSettings(cmd, a)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	if path == stdinPath {
		res, err := driver.TokenizeReader(ctx, stdinName, cmd.InOrStdin(), s.opts)
		if err != nil {
			return err
		}
		return reportSingle(out, errOut, s, stdinName, res)
	}

	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}
	if !st.IsDir() {
		res, err := driver.Tokenize(ctx, path, s.opts)
		if err != nil {
			return err
		}
		return reportSingle(out, errOut, s, path, res)
	}

	var (
		fs      *source.FileSet
		results []driver.TokenizeDirResult
	)
	if shouldUseTUI(s.ui, errOut) && !s.quiet {
		files, listErr := driver.ListSourceFiles(path)
		if listErr != nil {
			return listErr
		}
		fs, results, err = runTokenizeDirWithUI(ctx, errOut, "tokenizing "+path, path, files, s.opts)
	} else {
		fs, results, err = driver.TokenizeDir(ctx, path, s.opts)
	}
	if err != nil {
		return err
	}
	return reportDir(out, errOut, s, fs, results)
}

func reportSingle(out, errOut io.Writer, s tokenizeSettings, path string, res *driver.TokenizeResult) error {
	if s.format == "pretty" {
		if err := diagfmt.FormatTokensPretty(out, res.Tokens); err != nil {
			return err
		}
	} else {
		outputs := []diagfmt.TokensOutput{diagfmt.BuildTokensOutput(path, res.Tokens, res.Err)}
		if err := writeTokens(out, s.format, outputs); err != nil {
			return err
		}
	}
	if err := writeDiagnostics(errOut, s, res.Bag, res.FileSet); err != nil {
		return err
	}
	if res.Bag.HasErrors() {
		return errHadErrors
	}
	return nil
}

func reportDir(out, errOut io.Writer, s tokenizeSettings, fs *source.FileSet, results []driver.TokenizeDirResult) error {
	merged := diag.NewBag(s.opts.MaxDiagnostics)
	outputs := make([]diagfmt.TokensOutput, 0, len(results))
	for _, r := range results {
		merged.Merge(r.Bag)
		if s.format == "pretty" {
			if _, err := fmt.Fprintf(out, "== %s ==\n", r.Path); err != nil {
				return err
			}
			if err := diagfmt.FormatTokensPretty(out, r.Tokens); err != nil {
				return err
			}
			continue
		}
		outputs = append(outputs, diagfmt.BuildTokensOutput(r.Path, r.Tokens, r.Err))
	}
	if s.format != "pretty" {
		if err := writeTokens(out, s.format, outputs); err != nil {
			return err
		}
	}
	merged.Sort()
	if err := writeDiagnostics(errOut, s, merged, fs); err != nil {
		return err
	}
	if !s.quiet && s.diagFormat == "pretty" {
		failed := 0
		for _, r := range results {
			if r.Bag.HasErrors() {
				failed++
			}
		}
		if _, err := fmt.Fprintf(errOut, "%d files, %d with errors\n", len(results), failed); err != nil {
			return err
		}
	}
	if merged.HasErrors() {
		return errHadErrors
	}
	return nil
}

func writeTokens(w io.Writer, format string, outputs []diagfmt.TokensOutput) error {
	switch format {
	case "json":
		return diagfmt.FormatTokensJSON(w, outputs)
	case "yaml":
		return diagfmt.FormatTokensYAML(w, outputs)
	case "msgpack":
		return diagfmt.FormatTokensMsgpack(w, outputs)
	default:
		return errors.New("unsupported token format: " + format)
	}
}

func writeDiagnostics(w io.Writer, s tokenizeSettings, bag *diag.Bag, fs *source.FileSet) error {
	if s.quiet {
		// --quiet прячет информационные записи (timings)
		bag = bag.Filter(func(d diag.Diagnostic) bool { return d.Severity > diag.SevInfo })
	}
	if s.diagFormat == "json" {
		return diagfmt.JSON(w, bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         diagfmt.PathModeAuto,
			IncludeNotes:     true,
		})
	}
	if bag.Len() == 0 {
		return nil
	}
	err := diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{
		Color:     s.color,
		Context:   int8(s.context), // #nosec G115 -- validated to 0..10
		PathMode:  diagfmt.PathModeAuto,
		ShowNotes: true,
	})
	if err != nil {
		return err
	}
	if n := bag.Dropped(); n > 0 {
		_, err = fmt.Fprintf(w, "... %d more diagnostics not shown (raise --max-diagnostics)\n", n)
	}
	return err
}
