package main

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"schemelex/internal/driver"
	"schemelex/internal/source"
	"schemelex/internal/ui"
)

type dirOutcome struct {
	fs      *source.FileSet
	results []driver.TokenizeDirResult
	err     error
}

func runTokenizeDirWithUI(ctx context.Context, out io.Writer, title string, dir string, files []string, opts driver.Options) (*source.FileSet, []driver.TokenizeDirResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan dirOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelSink{Ch: events}
		fs, results, err := driver.TokenizeDir(ctx, dir, optsCopy)
		outcomeCh <- dirOutcome{fs: fs, results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithInput(nil), tea.WithContext(ctx))
	_, uiErr := program.Run()
	if uiErr != nil {
		// UI прерван: останавливаем воркеров
		cancel()
	}
	outcome := awaitOutcome(events, outcomeCh)
	if uiErr != nil && outcome.err == nil {
		return outcome.fs, outcome.results, uiErr
	}
	return outcome.fs, outcome.results, outcome.err
}

// awaitOutcome waits for the tokenize run once the UI no longer reads events.
// Leftover events are discarded so workers blocked on a full sink can finish.
func awaitOutcome(events <-chan driver.Event, outcomeCh <-chan dirOutcome) dirOutcome {
	go func() {
		for range events {
		}
	}()
	return <-outcomeCh
}
