package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/ctfterm/internal/config"
	"github.com/abelbrown/ctfterm/internal/coord"
	"github.com/abelbrown/ctfterm/internal/input"
	"github.com/abelbrown/ctfterm/internal/logging"
	"github.com/abelbrown/ctfterm/internal/metrics"
	"github.com/abelbrown/ctfterm/internal/otel"
)

// recentEvents is how many otel events a Snapshot carries.
const recentEvents = 5

// Renderer consumes snapshots. Render must not block the loop for long.
type Renderer interface {
	Render(Snapshot)
}

// Refresher starts a refresh whose channel yields one Batch.
// *coord.Coordinator implements it.
type Refresher interface {
	Refresh(ctx context.Context) <-chan coord.Batch
}

// Options configures a Loop.
type Options struct {
	FrameInterval   time.Duration
	RefreshInterval time.Duration // 0 fetches once
	ScrollTicks     int
	ScrollMinRows   int
	MergePolicy     string
	Watchlist       []string

	Metrics *metrics.Recorder
	Events  *otel.Logger
	Ring    *otel.RingBuffer
}

// OptionsFromConfig maps the dashboard settings of cfg onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		FrameInterval:   cfg.FrameInterval,
		RefreshInterval: cfg.RefreshInterval,
		ScrollTicks:     cfg.ScrollTicks,
		ScrollMinRows:   cfg.ScrollMinRows,
		MergePolicy:     cfg.MergePolicy,
		Watchlist:       cfg.Watchlist,
	}
}

// Loop is the single owner of State.
type Loop struct {
	state     *State
	actions   <-chan input.Action
	refresher Refresher
	renderer  Renderer
	opts      Options

	pending <-chan coord.Batch // nil when no refresh is in flight
	frame   uint64
	logger  *log.Logger
}

// NewLoop wires a loop. Nothing runs until Run.
func NewLoop(r Refresher, actions <-chan input.Action, rend Renderer, opts Options) *Loop {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 100 * time.Millisecond
	}
	if opts.MergePolicy == "" {
		opts.MergePolicy = config.MergeReplace
	}
	return &Loop{
		state:     NewState(opts.Watchlist, opts.ScrollTicks, opts.ScrollMinRows),
		actions:   actions,
		refresher: r,
		renderer:  rend,
		opts:      opts,
		logger:    logging.WithPrefix("dashboard"),
	}
}

// Run drives the dashboard until quit (nil) or ctx is done (ctx.Err()).
// It starts the first refresh immediately.
func (l *Loop) Run(ctx context.Context) error {
	frame := time.NewTicker(l.opts.FrameInterval)
	defer frame.Stop()

	var refreshC <-chan time.Time
	if l.opts.RefreshInterval > 0 {
		t := time.NewTicker(l.opts.RefreshInterval)
		defer t.Stop()
		refreshC = t.C
	}

	l.startRefresh(ctx)
	l.render()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case a, ok := <-l.actions:
			if !ok || a == input.ActionQuit {
				l.logger.Debug("dashboard quit")
				return nil
			}
			l.opts.Metrics.ObserveAction(a.String())
			if a == input.ActionRefresh {
				l.startRefresh(ctx)
			} else {
				l.state.Apply(a)
			}
			l.render()

		case b, ok := <-l.pending:
			// A nil channel is never selected, so a batch merges once.
			l.pending = nil
			if ok {
				l.merge(b)
			}
			l.render()

		case <-refreshC:
			l.startRefresh(ctx)

		case <-frame.C:
			l.frame++
			l.state.Tick()
			l.render()
		}
	}
}

// State exposes the loop's state for inspection once Run has returned.
func (l *Loop) State() *State {
	return l.state
}

func (l *Loop) startRefresh(ctx context.Context) {
	if l.pending != nil {
		return
	}
	l.pending = l.refresher.Refresh(ctx)
}

func (l *Loop) merge(b coord.Batch) {
	l.state.Merge(b, l.opts.MergePolicy)
	l.opts.Metrics.ObserveMerge(l.opts.MergePolicy)

	records := len(b.Running) + len(b.Past) + len(b.Writeups) + len(b.Leaderboard)
	l.logger.Info("batch merged", "policy", l.opts.MergePolicy, "records", records, "failed", b.Failed())
	if l.opts.Events != nil {
		l.opts.Events.Emit(otel.Event{
			Level: otel.LevelInfo,
			Kind:  otel.KindMergeBatch,
			Comp:  "dashboard",
			Count: records,
			Msg:   fmt.Sprintf("%d/%d feeds ok", b.Completed-b.Failed(), b.Completed),
		})
	}
}

func (l *Loop) render() {
	if l.renderer == nil {
		return
	}
	snap := l.state.Snapshot()
	snap.Refreshing = l.pending != nil
	snap.Frame = l.frame
	if l.opts.Ring != nil {
		snap.Recent = l.opts.Ring.Last(recentEvents)
	}
	l.renderer.Render(snap)
}
