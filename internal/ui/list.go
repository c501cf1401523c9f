package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/senti/internal/formatter"
	"github.com/desertthunder/senti/internal/models"
)

var (
	_ list.Item = analysisItem{}
)

// analysisItem wraps [models.Analysis] to implement [list.Item].
type analysisItem struct {
	analysis models.Analysis
}

func (i analysisItem) FilterValue() string { return i.analysis.Text }
func (i analysisItem) Title() string       { return i.analysis.Text }
func (i analysisItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.analysis.Sentiment, formatter.Confidence(i.analysis.Confidence))
	if i.analysis.Correction != "" {
		desc = fmt.Sprintf("%s • corrected to %s", desc, i.analysis.Correction)
	}
	if !i.analysis.CreatedAt.IsZero() {
		desc = fmt.Sprintf("%s • %s", desc, i.analysis.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	if i.analysis.RemoteID > 0 {
		desc = fmt.Sprintf("#%d • %s", i.analysis.RemoteID, desc)
	}
	return desc
}
