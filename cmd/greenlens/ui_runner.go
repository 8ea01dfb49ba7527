package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"greenlens/internal/driver"
	"greenlens/internal/ui"
)

type checkOutcome struct {
	result *driver.Result
	err    error
}

func runCheckWithUI(ctx context.Context, title, baseDir string, files []string, opts driver.Options) (*driver.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		runOpts := opts
		runOpts.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.CheckFiles(ctx, baseDir, files, runOpts)
		outcomeCh <- checkOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	final, uiErr := program.Run()
	if uiErr != nil || ui.Interrupted(final) {
		cancel()
	}
	// the view may quit early (ctrl+c); keep the producer unblocked
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
