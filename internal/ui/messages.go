// Package ui renders dashboard snapshots with Bubble Tea.
//
// The UI owns no application state. It displays the latest Snapshot it was
// sent, forwards key presses to the input controller and quits once the
// dashboard loop reports that it stopped.
package ui

import "github.com/abelbrown/ctfterm/internal/dashboard"

// SnapshotMsg carries a fresh dashboard snapshot.
type SnapshotMsg dashboard.Snapshot

// LoopStopped is sent when the dashboard loop has returned.
type LoopStopped struct {
	Err error
}
