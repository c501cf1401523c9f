package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/senti/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgTrainingComplete
)

type trainingOutcome struct {
	result *tasks.TrainResult
	err    error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// trainingCompleteMsg is the constructor for [MsgTrainingComplete]
func trainingCompleteMsg(result *tasks.TrainResult, err error) Msg {
	return Msg{kind: MsgTrainingComplete, data: trainingOutcome{result, err}}
}
