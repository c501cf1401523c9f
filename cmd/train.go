package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/senti/internal/jobs"
	"github.com/desertthunder/senti/internal/shared"
	"github.com/desertthunder/senti/internal/tasks"
	"github.com/desertthunder/senti/internal/ui"
)

// pollOptions builds poller options from the training config, overridden by any flags given.
func (r *Runner) pollOptions(cmd *cli.Command) jobs.Options {
	opts := jobs.Options{
		Interval:    r.config.Training.PollInterval,
		MaxAttempts: r.config.Training.MaxAttempts,
		MaxDuration: r.config.Training.MaxDuration,
		Logger:      r.logger,
	}
	if cmd.IsSet("interval") {
		opts.Interval = cmd.Duration("interval")
	}
	if cmd.IsSet("max-attempts") {
		opts.MaxAttempts = cmd.Int("max-attempts")
	}
	if cmd.IsSet("timeout") {
		opts.MaxDuration = cmd.Duration("timeout")
	}
	return opts
}

// TrainUpload uploads a labelled dataset, then waits for training to finish.
func (r *Runner) TrainUpload(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("%w: file", shared.ErrMissingArgument)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	return r.runTraining(ctx, cmd, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.TrainResult, error) {
		return r.engine.Train(ctx, name, f, r.pollOptions(cmd), progress)
	})
}

// TrainWatch waits for the current training run to finish without uploading anything.
func (r *Runner) TrainWatch(ctx context.Context, cmd *cli.Command) error {
	return r.runTraining(ctx, cmd, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.TrainResult, error) {
		res, err := r.engine.Monitor(ctx, r.pollOptions(cmd), progress)
		return &tasks.TrainResult{Poll: res}, err
	})
}

// TrainStatus queries the training slot once.
func (r *Runner) TrainStatus(ctx context.Context, cmd *cli.Command) error {
	status, err := r.svc.TrainingStatus(ctx)
	if err != nil {
		return err
	}

	state := "idle"
	if status.IsTraining {
		state = "running"
	}
	if err := r.writePlain("Training: %s\n", state); err != nil {
		return err
	}
	if status.Message != "" {
		return r.writePlain("Message:  %s\n", status.Message)
	}
	return nil
}

// runTraining runs fn in the TUI with --tui, or logging progress otherwise.
//
// Interrupting stops the watch only; the server keeps training.
func (r *Runner) runTraining(ctx context.Context, cmd *cli.Command, fn ui.TrainFunc) error {
	if cmd.Bool("tui") {
		return r.runTrainingTUI(ctx, fn)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	progress := make(chan tasks.ProgressUpdate, 8)
	done := r.progressPrinter(progress)
	res, err := fn(ctx, progress)
	close(progress)
	<-done

	if res == nil {
		return err
	}
	if rerr := r.term.Render(ui.ViewTraining, res); rerr != nil {
		return rerr
	}
	if jobs.Interrupted(res.Poll) {
		r.logger.Warn("stopped watching, training continues on the server")
		return nil
	}
	return err
}
