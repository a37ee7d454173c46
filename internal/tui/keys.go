package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/kingrea/qstorm/internal/session"
)

type keyMap struct {
	Quit        key.Binding
	Help        key.Binding
	Submit      key.Binding
	NextField   key.Binding
	Paradox     key.Binding
	History     key.Binding
	Reset       key.Binding
	Up          key.Binding
	Down        key.Binding
	Star        key.Binding
	Export      key.Binding
	Analysis    key.Binding
	Expand      key.Binding
	Delete      key.Binding
	Reload      key.Binding
	Confirm     key.Binding
	Cancel      key.Binding
	NewSession  key.Binding
	ReviewBack  key.Binding
	HistoryBack key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Help:        key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "guide")),
		Submit:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		NextField:   key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		Paradox:     key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "paradox mode")),
		History:     key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "history")),
		Reset:       key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "new session")),
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Star:        key.NewBinding(key.WithKeys(" ", "enter", "s"), key.WithHelp("space", "star")),
		Export:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		Analysis:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "audit report")),
		Expand:      key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "expand")),
		Delete:      key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Confirm:     key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
		Cancel:      key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "cancel")),
		NewSession:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new session")),
		ReviewBack:  key.NewBinding(key.WithKeys("esc", "b"), key.WithHelp("esc", "back to review")),
		HistoryBack: key.NewBinding(key.WithKeys("esc", "b"), key.WithHelp("esc", "back")),
	}
}

// bindingsFor returns the footer hints for a phase.
func (k keyMap) bindingsFor(phase session.Phase) []key.Binding {
	switch phase {
	case session.PhaseSetup:
		return []key.Binding{k.Submit, k.NextField, k.Paradox, k.History, k.Help, k.Quit}
	case session.PhaseStorming:
		return []key.Binding{k.Submit, k.Reset, k.Help, k.Quit}
	case session.PhaseReview:
		return []key.Binding{k.Up, k.Down, k.Star, k.Export, k.Analysis, k.NewSession, k.Help}
	case session.PhaseAnalysis:
		return []key.Binding{k.ReviewBack, k.Export, k.NewSession, k.Help}
	case session.PhaseHistory:
		return []key.Binding{k.Up, k.Down, k.Expand, k.Delete, k.Reload, k.HistoryBack}
	}
	return []key.Binding{k.Quit}
}
