package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/senti/internal/tasks"
)

// HistoryModel is a filterable list of analyses.
type HistoryModel struct {
	view   *tasks.HistoryView
	list   list.Model
	help   help.Model
	keys   keyMap
	width  int
	height int
}

// NewHistoryModel creates a [HistoryModel] over v.
func NewHistoryModel(v *tasks.HistoryView) *HistoryModel {
	items := make([]list.Item, len(v.Items))
	for i, a := range v.Items {
		items[i] = analysisItem{analysis: a}
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "History"
	if !v.Remote {
		l.Title = "History (this device)"
	}
	l.SetShowHelp(false)

	return &HistoryModel{view: v, list: l, help: help.New(), keys: newKeyMap()}
}

func (m *HistoryModel) Init() tea.Cmd {
	return nil
}

func (m *HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() != list.Filtering && key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *HistoryModel) View() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.filter, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", m.list.View(), formatSummary(m.view.Summary), helpView)
}
