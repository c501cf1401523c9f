package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/senti/internal/jobs"
	"github.com/desertthunder/senti/internal/shared"
	"github.com/desertthunder/senti/internal/tasks"
	"github.com/desertthunder/senti/internal/ui"
)

const tuiLogPath = "./tmp/senti-tui.log"

// useFileLogger redirects logs to a file so they do not interfere with TUI rendering.
func (r *Runner) useFileLogger() error {
	fileLogger, err := shared.NewFileLogger(tuiLogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)
	return nil
}

// runTrainingTUI shows the training monitor until the run ends or the user quits.
func (r *Runner) runTrainingTUI(ctx context.Context, fn ui.TrainFunc) error {
	if err := r.useFileLogger(); err != nil {
		return err
	}

	model := ui.NewTrainingModel(ctx, fn)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	res, err := model.Result()
	if res == nil {
		return err
	}
	if rerr := r.term.Render(ui.ViewTraining, res); rerr != nil {
		return rerr
	}
	if jobs.Interrupted(res.Poll) {
		return nil
	}
	return err
}

// runHistoryTUI opens a filterable list of analyses.
func (r *Runner) runHistoryTUI(view *tasks.HistoryView) error {
	if err := r.useFileLogger(); err != nil {
		return err
	}

	if _, err := tea.NewProgram(ui.NewHistoryModel(view), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
