package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorFocused   = lipgloss.Color("15") // white
	colorUnfocused = lipgloss.Color("9")  // red
	colorTitle     = lipgloss.Color("212")
	colorMuted     = lipgloss.Color("241")
	colorWarn      = lipgloss.Color("214")
	colorError     = lipgloss.Color("196")
)

// TitleBar is the top line with the program name.
var TitleBar = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("62")).
	Padding(0, 1)

// PanelTitle styles the heading inside every panel.
var PanelTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorTitle)

// Muted is used for placeholders and secondary columns.
var Muted = lipgloss.NewStyle().
	Foreground(colorMuted)

// StaleBadge marks a panel showing cached rows.
var StaleBadge = lipgloss.NewStyle().
	Foreground(colorWarn)

// ErrorBadge marks a panel whose feed failed.
var ErrorBadge = lipgloss.NewStyle().
	Foreground(colorError)

// StatusBar is the bottom line with the latest event.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// panelStyle returns the bordered box for a panel of the given outer size.
func panelStyle(width, height int, focused bool) lipgloss.Style {
	border := colorUnfocused
	if focused {
		border = colorFocused
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(max(width-2, 0)).
		Height(max(height-2, 0))
}
