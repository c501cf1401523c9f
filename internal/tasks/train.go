package tasks

import (
	"context"
	"io"

	"github.com/desertthunder/senti/internal/jobs"
)

// TrainResult reports an upload and the poll that followed it.
type TrainResult struct {
	Started string      // Server message acknowledging the upload
	Poll    jobs.Result // Outcome of monitoring the training slot
}

// Train uploads a labelled dataset and waits for the server to finish training on it.
func (e *Engine) Train(ctx context.Context, filename string, r io.Reader, opts jobs.Options, progress chan<- ProgressUpdate) (*TrainResult, error) {
	e.sendProgress(progress, uploadUpdate(filename))

	msg, err := e.svc.UploadTrainData(ctx, filename, r)
	if err != nil {
		return nil, err
	}
	e.logger.Info("training started", "file", filename, "message", msg)

	res, err := e.Monitor(ctx, opts, progress)
	return &TrainResult{Started: msg, Poll: res}, err
}

// Monitor polls the training status until the server reports it is idle.
func (e *Engine) Monitor(ctx context.Context, opts jobs.Options, progress chan<- ProgressUpdate) (jobs.Result, error) {
	res, err := e.TrainingPoller(opts, progress).Wait(ctx)
	e.sendProgress(progress, trainingDoneUpdate(res))
	return res, err
}

// TrainingPoller builds a [jobs.Poller] over the training status that reports each attempt on progress.
func (e *Engine) TrainingPoller(opts jobs.Options, progress chan<- ProgressUpdate) *jobs.Poller {
	maxAttempts := opts.MaxAttempts
	next := opts.OnAttempt
	opts.OnAttempt = func(a jobs.Attempt) {
		e.sendProgress(progress, attemptUpdate(a, maxAttempts))
		if next != nil {
			next(a)
		}
	}
	if opts.Logger == nil {
		opts.Logger = e.logger
	}
	return jobs.NewPoller(e.trainingStatus, opts)
}

func (e *Engine) trainingStatus(ctx context.Context) (jobs.Status, error) {
	s, err := e.svc.TrainingStatus(ctx)
	if err != nil {
		return jobs.Status{}, err
	}
	return jobs.Status{Running: s.IsTraining, Message: s.Message}, nil
}
