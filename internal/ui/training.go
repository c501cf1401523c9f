package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/senti/internal/jobs"
	"github.com/desertthunder/senti/internal/tasks"
)

// TrainFunc runs a training upload or monitor, reporting on progress until it returns.
type TrainFunc func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.TrainResult, error)

// TrainingModel shows a spinner and the latest poll attempt while the server trains.
type TrainingModel struct {
	ctx      context.Context
	cancel   context.CancelFunc
	run      TrainFunc
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	progress tasks.ProgressUpdate
	updates  chan tasks.ProgressUpdate
	outcome  chan trainingOutcome
	result   *tasks.TrainResult
	err      error
	done     bool
}

// NewTrainingModel creates a [TrainingModel] that calls run once started.
func NewTrainingModel(ctx context.Context, run TrainFunc) *TrainingModel {
	ctx, cancel := context.WithCancel(ctx)
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.ok

	return &TrainingModel{
		ctx:     ctx,
		cancel:  cancel,
		run:     run,
		spinner: s,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the spinner and the training run.
func (m *TrainingModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start())
}

// Update handles incoming messages and updates the model state.
func (m *TrainingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, m.keys.stop):
			m.cancel()
			return m, nil
		}

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.progress = msg.data.(tasks.ProgressUpdate)
			return m, m.waitForProgress()
		case MsgTrainingComplete:
			out := msg.data.(trainingOutcome)
			m.result = out.result
			m.err = out.err
			m.done = true
			return m, nil
		}

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the spinner while running and the outcome once done.
func (m *TrainingModel) View() string {
	title := styles.title.Render("Model training")

	if !m.done {
		status := "Starting..."
		if m.progress.Message != "" {
			status = m.progress.Message
		}
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.stop, m.keys.quit})
		return fmt.Sprintf("%s\n%s %s\n\n%s", title, m.spinner.View(), status, helpView)
	}

	var body string
	switch {
	case m.result == nil && m.err != nil:
		body = styles.err.Render(fmt.Sprintf("✗ %v", m.err))
	case m.result != nil && jobs.Interrupted(m.result.Poll):
		body = styles.warn.Render("Stopped watching. Training continues on the server.")
	case m.result != nil:
		body = formatTraining(m.result)
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", title, body, helpView)
}

// Result returns the outcome once the run has ended.
func (m *TrainingModel) Result() (*tasks.TrainResult, error) {
	return m.result, m.err
}

func (m *TrainingModel) start() tea.Cmd {
	m.updates = make(chan tasks.ProgressUpdate, 50)
	m.outcome = make(chan trainingOutcome, 1)

	go func() {
		result, err := m.run(m.ctx, m.updates)
		m.outcome <- trainingOutcome{result, err}
		close(m.updates)
	}()

	return m.waitForProgress()
}

func (m *TrainingModel) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.updates
		if !ok {
			out := <-m.outcome
			return trainingCompleteMsg(out.result, out.err)
		}
		return progressUpdateMsg(update)
	}
}
