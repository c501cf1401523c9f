package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/senti/internal/shared"
)

// DefaultInterval is the delay between status queries.
const DefaultInterval = 2 * time.Second

// State is the poller's lifecycle state.
type State int

const (
	Idle State = iota
	Polling
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Polling:
		return "polling"
	default:
		return ""
	}
}

// Status is one observation of the job.
type Status struct {
	Running bool
	Message string
}

// StatusFunc queries the job once.
type StatusFunc func(ctx context.Context) (Status, error)

// Attempt describes one status query.
type Attempt struct {
	N       int
	Status  Status
	Err     error
	Elapsed time.Duration
}

// Result is delivered to the completion callback.
//
// Err is nil when the job finished; Message is then the job's final message, possibly empty.
type Result struct {
	Message  string
	Attempts int
	Err      error
}

// Options configures a [Poller]. Zero MaxAttempts or MaxDuration disables that cap.
type Options struct {
	Interval    time.Duration
	MaxAttempts int
	MaxDuration time.Duration
	Clock       Clock
	OnAttempt   func(Attempt)
	Logger      *log.Logger
}

// Poller repeatedly queries a job's status until it stops running.
type Poller struct {
	status StatusFunc
	opts   Options

	mu    sync.Mutex
	state State
	run   *run
}

type run struct {
	cancel  context.CancelFunc
	stopped atomic.Bool
}

// NewPoller creates an idle [Poller].
func NewPoller(status StatusFunc, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Poller{status: status, opts: opts}
}

// State returns the current lifecycle state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Start begins polling in the background. onDone is called exactly once when polling ends.
//
// It returns [shared.ErrAlreadyPolling] if a poll is in progress.
func (p *Poller) Start(ctx context.Context, onDone func(Result)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Polling {
		return shared.ErrAlreadyPolling
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{cancel: cancel}
	ticker := p.opts.Clock.NewTicker(p.opts.Interval)

	p.state = Polling
	p.run = r

	go p.loop(runCtx, r, ticker, onDone)
	return nil
}

// Stop ends the current poll. It is a no-op when idle and safe to call repeatedly or concurrently.
func (p *Poller) Stop() {
	p.mu.Lock()
	r := p.run
	p.mu.Unlock()

	if r == nil {
		return
	}
	r.stopped.Store(true)
	r.cancel()
}

// Wait starts polling and blocks until it ends.
func (p *Poller) Wait(ctx context.Context) (Result, error) {
	done := make(chan Result, 1)
	if err := p.Start(ctx, func(r Result) { done <- r }); err != nil {
		return Result{}, err
	}

	r := <-done
	return r, r.Err
}

func (p *Poller) loop(ctx context.Context, r *run, ticker Ticker, onDone func(Result)) {
	logger := p.opts.Logger
	start := p.opts.Clock.Now()
	attempts := 0

	finish := func(res Result) {
		ticker.Stop()
		r.cancel()

		p.mu.Lock()
		if p.run == r {
			p.state = Idle
			p.run = nil
		}
		p.mu.Unlock()

		res.Attempts = attempts
		if res.Err != nil {
			logger.Debug("polling ended", "attempts", attempts, "error", res.Err)
		} else {
			logger.Debug("job finished", "attempts", attempts, "message", res.Message)
		}
		if onDone != nil {
			onDone(res)
		}
	}

	interrupted := func() Result {
		if r.stopped.Load() {
			return Result{Err: shared.ErrPollStopped}
		}
		return Result{Err: ctx.Err()}
	}

	for {
		select {
		case <-ctx.Done():
			finish(interrupted())
			return
		case <-ticker.C():
		}

		elapsed := p.opts.Clock.Now().Sub(start)
		if p.opts.MaxDuration > 0 && elapsed >= p.opts.MaxDuration {
			finish(Result{Err: fmt.Errorf("%w: no result after %s", shared.ErrPollLimit, p.opts.MaxDuration)})
			return
		}

		attempts++
		status, err := p.status(ctx)
		if ctx.Err() != nil {
			finish(interrupted())
			return
		}

		if p.opts.OnAttempt != nil {
			p.opts.OnAttempt(Attempt{N: attempts, Status: status, Err: err, Elapsed: elapsed})
		}

		switch {
		case err != nil:
			logger.Warn("status query failed", "attempt", attempts, "error", err)
			finish(Result{Err: err})
			return
		case !status.Running:
			finish(Result{Message: status.Message})
			return
		case p.opts.MaxAttempts > 0 && attempts >= p.opts.MaxAttempts:
			finish(Result{Err: fmt.Errorf("%w: still running after %d attempts", shared.ErrPollLimit, attempts)})
			return
		}
	}
}

// Finished reports whether res describes a job that completed, as opposed to a poll that was cut short.
func Finished(res Result) bool {
	return res.Err == nil
}

// Interrupted reports whether res ended through Stop or context cancellation.
func Interrupted(res Result) bool {
	return errors.Is(res.Err, shared.ErrPollStopped) ||
		errors.Is(res.Err, context.Canceled) ||
		errors.Is(res.Err, context.DeadlineExceeded)
}
