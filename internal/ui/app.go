package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/ctfterm/internal/dashboard"
	"github.com/abelbrown/ctfterm/internal/input"
	"github.com/abelbrown/ctfterm/internal/model"
)

// chromeLines are the title, help and status lines around the panels.
const chromeLines = 3

// App is the root Bubble Tea model.
// IMPORTANT: App never mutates dashboard state. It receives snapshots via
// messages and forwards keys to the input controller.
type App struct {
	keys    input.KeyMap
	forward func(tea.KeyMsg) bool

	snap    dashboard.Snapshot
	spinner spinner.Model
	help    help.Model
	width   int
	height  int
	ready   bool
	err     error
}

// NewApp creates an App. forward receives every key press and reports
// whether it was accepted; input.ChanSource.Push fits.
func NewApp(keys input.KeyMap, forward func(tea.KeyMsg) bool) App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = PanelTitle

	return App{
		keys:    keys,
		forward: forward,
		snap:    dashboard.Snapshot{Loading: true},
		spinner: s,
		help:    help.New(),
	}
}

// Init starts the spinner.
func (a App) Init() tea.Cmd {
	return a.spinner.Tick
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		accepted := a.forward != nil && a.forward(msg)
		// Without a running controller, ctrl+c still has to work.
		if !accepted && msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		return a, nil

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.ready = true
		return a, nil

	case SnapshotMsg:
		a.snap = dashboard.Snapshot(msg)
		return a, nil

	case LoopStopped:
		a.err = msg.Err
		return a, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}
	return a, nil
}

// View renders the dashboard.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	body := max(a.height-chromeLines, 4)
	top := body * 3 / 4
	bottom := body - top
	leftW := a.width / 2
	rightW := a.width - leftW
	runningH := max(top/3, 3)
	leaderH := top - runningH

	focused := func(r model.Region) bool { return a.snap.Focus == r }
	s := a.snap

	left := lipgloss.JoinVertical(lipgloss.Left,
		panel(panelTitle(model.FeedRunning, s), runningLines(s), leftW, runningH, focused(model.RegionRunning)),
		panel(panelTitle(model.FeedLeaderboard, s), leaderboardLines(s), leftW, leaderH, focused(model.RegionLeaderboard)),
	)
	right := panel(panelTitle(model.FeedPast, s), pastLines(s, rightW-2), rightW, top, focused(model.RegionPast))

	writeupsW := a.width * 2 / 3
	watchW := a.width - writeupsW
	lower := lipgloss.JoinHorizontal(lipgloss.Top,
		panel(panelTitle(model.FeedWriteups, s), writeupLines(s.Writeups, s, "no write ups"), writeupsW, bottom, focused(model.RegionWriteups)),
		panel(PanelTitle.Render("Watchlist"), writeupLines(s.Watched, s, "no matches"), watchW, bottom, focused(model.RegionWatchlist)),
	)

	return strings.Join([]string{
		a.renderTitle(),
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		lower,
		a.help.View(a.keys),
		StatusBar.Width(a.width).Render(statusLine(s)),
	}, "\n")
}

func (a App) renderTitle() string {
	left := "CTFTIME"
	right := ""
	switch {
	case a.snap.Loading:
		right = a.spinner.View() + " loading"
	case a.snap.Refreshing:
		right = a.spinner.View() + " refreshing"
	case len(a.snap.Failed()) > 0:
		right = fmt.Sprintf("%d feed(s) unavailable", len(a.snap.Failed()))
	}
	pad := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return TitleBar.Width(a.width).Render(left + strings.Repeat(" ", pad) + right)
}

// Snapshot returns the last snapshot received (for testing).
func (a App) Snapshot() dashboard.Snapshot {
	return a.snap
}

// Err returns the error the dashboard loop stopped with, if any.
func (a App) Err() error {
	return a.err
}
