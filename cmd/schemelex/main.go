package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"schemelex/internal/trace"
	"schemelex/internal/version"
)

// errHadErrors signals that diagnostics were already printed and the exit code must be 1.
var errHadErrors = errors.New("errors reported")

// app carries state shared by all commands of one invocation.
type app struct {
	cfg     fileConfig
	cfgPath string
	logger  *trace.Logger
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "schemelex",
		Short:         "Scheme/Lisp tokenizer",
		Long:          `schemelex splits Scheme and Lisp source into tokens and reports lexical errors with positions`,
		Version:       version.Current().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loadConfig(cmd); err != nil {
				return err
			}
			return a.setupLogging(cmd)
		},
	}

	// Добавляем команды
	rootCmd.AddCommand(newTokenizeCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCleanCmd(a))

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug|info|warn|error|off)")
	rootCmd.PersistentFlags().String("log-file", "", "also write JSON logs to this file")
	rootCmd.PersistentFlags().String("config", "", "path to schemelex.toml (default: search upwards from the working directory)")

	return rootCmd
}

// run executes the CLI and returns the process exit code.
// A panic dumps the recent log records before propagating.
func run(args []string, stdout, stderr io.Writer) (code int) {
	a := &app{}
	defer func() {
		if r := recover(); r != nil {
			_, _ = fmt.Fprintln(stderr, "schemelex: internal error, recent log records:")
			_ = a.logger.Dump(stderr)
			panic(r)
		}
	}()

	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	err := rootCmd.Execute()
	if closeErr := a.logger.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		if !errors.Is(err, errHadErrors) {
			_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// isTerminal проверяет, является ли writer терминалом
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
