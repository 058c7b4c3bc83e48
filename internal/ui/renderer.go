package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/ctfterm/internal/dashboard"
)

// ProgramRenderer adapts a running *tea.Program to dashboard.Renderer.
type ProgramRenderer struct {
	p *tea.Program
}

// NewProgramRenderer wraps p.
func NewProgramRenderer(p *tea.Program) *ProgramRenderer {
	return &ProgramRenderer{p: p}
}

// Render sends snap to the program. Once the program has exited the
// message is discarded.
func (r *ProgramRenderer) Render(snap dashboard.Snapshot) {
	r.p.Send(SnapshotMsg(snap))
}

// Stop tells the program that the dashboard loop returned.
func (r *ProgramRenderer) Stop(err error) {
	r.p.Send(LoopStopped{Err: err})
}
