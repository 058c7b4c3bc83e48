// Package otel records structured dashboard events.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and a background drain
// goroutine. An optional RingBuffer keeps recent events in memory for the
// status line.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Fetch events
	KindFetchStart    EventKind = "fetch.start"
	KindFetchComplete EventKind = "fetch.complete"
	KindFetchError    EventKind = "fetch.error"
	KindFetchStale    EventKind = "fetch.stale"

	// Dashboard events
	KindMergeBatch EventKind = "merge.batch"
	KindAction     EventKind = "ui.action"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
)

// Event is the universal record. Every field except Kind and Time is
// optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // "coord", "dashboard", "input", "main"
	SessionID string         `json:"session_id,omitempty"` // random hex, same for the entire run
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"` // computed from Dur at marshal time
	Count     int            `json:"count,omitempty"`
	Source    string         `json:"source,omitempty"` // feed kind
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}

// Summary renders the event as a short single line for the status bar.
func (e Event) Summary() string {
	s := string(e.Kind)
	if e.Source != "" {
		s += " " + e.Source
	}
	switch {
	case e.Err != "":
		s += ": " + e.Err
	case e.Msg != "":
		s += ": " + e.Msg
	}
	return s
}
