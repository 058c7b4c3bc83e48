package input

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines the dashboard key bindings.
type KeyMap struct {
	Quit      key.Binding
	FocusNext key.Binding
	FocusPrev key.Binding
	Advance   key.Binding
	Retreat   key.Binding
	Refresh   key.Binding
}

// DefaultKeyMap keeps the classic w/s/a/d letters alongside arrows and
// vim keys.
var DefaultKeyMap = KeyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	FocusNext: key.NewBinding(
		key.WithKeys("w", "tab"),
		key.WithHelp("w/tab", "next panel"),
	),
	FocusPrev: key.NewBinding(
		key.WithKeys("s", "shift+tab"),
		key.WithHelp("s", "prev panel"),
	),
	Advance: key.NewBinding(
		key.WithKeys("d", "right", "l"),
		key.WithHelp("d/→", "forward"),
	),
	Retreat: key.NewBinding(
		key.WithKeys("a", "left", "h"),
		key.WithHelp("a/←", "back"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.FocusNext, k.FocusPrev, k.Advance, k.Retreat, k.Refresh, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.FocusNext, k.FocusPrev},
		{k.Advance, k.Retreat},
		{k.Refresh, k.Quit},
	}
}

// Translate maps a key press to an Action. Unbound keys return false.
func (k KeyMap) Translate(msg tea.KeyMsg) (Action, bool) {
	switch {
	case key.Matches(msg, k.Quit):
		return ActionQuit, true
	case key.Matches(msg, k.FocusNext):
		return ActionFocusNext, true
	case key.Matches(msg, k.FocusPrev):
		return ActionFocusPrev, true
	case key.Matches(msg, k.Advance):
		return ActionAdvance, true
	case key.Matches(msg, k.Retreat):
		return ActionRetreat, true
	case key.Matches(msg, k.Refresh):
		return ActionRefresh, true
	}
	return 0, false
}
