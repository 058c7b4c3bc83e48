// Package input turns blocking key reads into dashboard actions.
//
// The Controller owns the only goroutine that waits on the KeySource, so
// the dashboard loop never blocks on the keyboard.
package input

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/abelbrown/ctfterm/internal/logging"
	"github.com/abelbrown/ctfterm/internal/otel"
)

// Action is a user intent decoded from a key press.
type Action int

const (
	ActionQuit Action = iota
	ActionFocusNext
	ActionFocusPrev
	ActionAdvance
	ActionRetreat
	ActionRefresh
)

var actionNames = [...]string{"quit", "focus-next", "focus-prev", "advance", "retreat", "refresh"}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// Controller reads keys from a KeySource and publishes Actions.
type Controller struct {
	src     KeySource
	keys    KeyMap
	events  *otel.Logger // optional
	actions chan Action
	wg      sync.WaitGroup
}

// NewController creates a Controller. events may be nil.
func NewController(src KeySource, keys KeyMap, events *otel.Logger) *Controller {
	return &Controller{
		src:     src,
		keys:    keys,
		events:  events,
		actions: make(chan Action),
	}
}

// Actions returns the channel of decoded actions. It is closed when the
// read loop exits.
func (c *Controller) Actions() <-chan Action {
	return c.actions
}

// Start runs the read loop in its own goroutine. The loop exits after
// delivering ActionQuit, when the source fails or when ctx is done.
func (c *Controller) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.actions)
		c.run(ctx)
	}()
}

// Wait blocks until the read loop has exited.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) run(ctx context.Context) {
	for {
		msg, err := c.src.ReadKey(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				logging.Warn("key source failed", "err", err)
			}
			return
		}

		action, ok := c.keys.Translate(msg)
		if !ok {
			continue
		}
		if c.events != nil {
			c.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindAction, Comp: "input", Msg: action.String()})
		}

		select {
		case c.actions <- action:
		case <-ctx.Done():
			return
		}
		if action == ActionQuit {
			return
		}
	}
}
