// Package ui renders sentiment results in the terminal.
//
// [Terminal] implements the one-shot [Renderer] used by every command, printing styled text and tables built with lipgloss.
// It also acts as the session's navigator: being sent to the login route prints a prompt to log in again.
//
// Two bubbletea programs cover the interactive cases:
//  1. [TrainingModel] : Spinner and latest status while the server trains, fed by the poller's progress channel
//  2. [HistoryModel] : Filterable list of past analyses
//
// Keyboard navigation uses vim-style bindings (j/k, /, s, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
