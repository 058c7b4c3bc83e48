package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/abelbrown/ctfterm/internal/dashboard"
	"github.com/abelbrown/ctfterm/internal/model"
)

// noneLabel is shown when no event is running.
const noneLabel = "None"

// panel renders a bordered box of the given outer size. Lines beyond the
// inner height are cut and every line is truncated to the inner width.
func panel(title string, lines []string, width, height int, focused bool) string {
	innerW := max(width-2, 0)
	innerH := max(height-2, 0)

	body := make([]string, 0, innerH)
	if innerH > 0 {
		body = append(body, ansi.Truncate(title, innerW, "…"))
	}
	for _, l := range lines {
		if len(body) >= innerH {
			break
		}
		body = append(body, ansi.Truncate(l, innerW, "…"))
	}
	return panelStyle(width, height, focused).Render(strings.Join(body, "\n"))
}

// panelTitle decorates a feed title with its refresh state.
func panelTitle(kind model.FeedKind, snap dashboard.Snapshot) string {
	title := PanelTitle.Render(kind.Title())
	for _, f := range snap.Feeds {
		if f.Kind != kind {
			continue
		}
		switch {
		case f.Stale:
			title += " " + StaleBadge.Render("(cached "+f.FetchedAt.Local().Format("15:04")+")")
		case f.Err != "":
			title += " " + ErrorBadge.Render("(unavailable)")
		}
	}
	return title
}

func placeholder(snap dashboard.Snapshot, empty string) []string {
	if snap.Loading {
		return []string{Muted.Render("loading…")}
	}
	return []string{Muted.Render(empty)}
}

func runningLines(snap dashboard.Snapshot) []string {
	if len(snap.Running) == 0 {
		if snap.Loading {
			return placeholder(snap, "")
		}
		return []string{noneLabel}
	}
	lines := make([]string, len(snap.Running))
	for i, ev := range snap.Running {
		lines[i] = string(ev)
	}
	return lines
}

func pastLines(snap dashboard.Snapshot, width int) []string {
	if len(snap.Past) == 0 {
		return placeholder(snap, "no past events")
	}
	lines := make([]string, len(snap.Past))
	for i, ev := range snap.Past {
		lines[i] = twoColumns(ev.Name, Muted.Render(ev.Date), width-2)
	}
	return lines
}

func leaderboardLines(snap dashboard.Snapshot) []string {
	if len(snap.Leaderboard) == 0 {
		return placeholder(snap, "no teams")
	}
	lines := []string{Muted.Render(fmt.Sprintf("%-5s %-24s %-8s %s", "#", "Team", "Country", "Points"))}
	for _, e := range snap.Leaderboard {
		lines = append(lines, fmt.Sprintf("%-5s %-24s %-8s %s", e.Rank, ansi.Truncate(e.Team, 24, "…"), e.Country, e.Points))
	}
	return lines
}

func writeupLines(ws []model.Writeup, snap dashboard.Snapshot, empty string) []string {
	if len(ws) == 0 {
		return placeholder(snap, empty)
	}
	lines := make([]string, len(ws))
	for i, w := range ws {
		line := w.Title + Muted.Render(" · "+w.EventName)
		if w.Tags != "" {
			line += Muted.Render(" [" + w.Tags + "]")
		}
		lines[i] = line
	}
	return lines
}

// twoColumns places left and right on one line of the given width.
func twoColumns(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left + " " + right
	}
	return left + strings.Repeat(" ", gap) + right
}

// statusLine shows the newest event, or the time of the last merge.
func statusLine(snap dashboard.Snapshot) string {
	if n := len(snap.Recent); n > 0 {
		ev := snap.Recent[n-1]
		return ev.Time.Local().Format("15:04:05") + " " + ev.Summary()
	}
	if !snap.UpdatedAt.IsZero() {
		return "updated " + snap.UpdatedAt.Local().Format("15:04:05")
	}
	return "waiting for first refresh"
}
