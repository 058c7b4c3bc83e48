// Package dashboard owns the application state and the single event loop
// that mutates it.
//
// State is never shared: the loop goroutine applies input actions, merges
// refresh batches, advances the autoscroll counter and hands the renderer
// deep-copied Snapshots.
package dashboard

import (
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/abelbrown/ctfterm/internal/config"
	"github.com/abelbrown/ctfterm/internal/coord"
	"github.com/abelbrown/ctfterm/internal/input"
	"github.com/abelbrown/ctfterm/internal/model"
	"github.com/abelbrown/ctfterm/internal/rotbuf"
)

// State is the application-state aggregate. Not safe for concurrent use.
type State struct {
	focus       model.Region
	running     *rotbuf.Buffer[model.RunningEvent]
	past        *rotbuf.Buffer[model.PastEvent]
	writeups    *rotbuf.Buffer[model.Writeup]
	leaderboard *rotbuf.Buffer[model.LeaderboardEntry]

	watchlist []string // lower-cased terms
	results   []coord.FeedResult
	merged    int // batches merged so far
	updatedAt time.Time

	scrollTicks   int
	scrollMinRows int
	counter       int
}

// NewState creates an empty State focused on the first region.
func NewState(watchlist []string, scrollTicks, scrollMinRows int) *State {
	if scrollTicks <= 0 {
		scrollTicks = 1
	}
	terms := lo.FilterMap(watchlist, func(t string, _ int) (string, bool) {
		t = strings.ToLower(strings.TrimSpace(t))
		return t, t != ""
	})
	return &State{
		running:       rotbuf.New[model.RunningEvent](),
		past:          rotbuf.New[model.PastEvent](),
		writeups:      rotbuf.New[model.Writeup](),
		leaderboard:   rotbuf.New[model.LeaderboardEntry](),
		watchlist:     terms,
		scrollTicks:   scrollTicks,
		scrollMinRows: scrollMinRows,
		counter:       scrollTicks,
	}
}

// Focus returns the focused region.
func (s *State) Focus() model.Region {
	return s.focus
}

// Apply performs a navigation action and reports whether anything moved.
// Quit and Refresh are handled by the loop.
func (s *State) Apply(a input.Action) bool {
	switch a {
	case input.ActionFocusNext:
		s.focus = s.focus.Next()
		return true
	case input.ActionFocusPrev:
		s.focus = s.focus.Prev()
		return true
	case input.ActionAdvance:
		return s.move(true)
	case input.ActionRetreat:
		return s.move(false)
	}
	return false
}

func (s *State) move(forward bool) bool {
	if !s.focus.Navigable() {
		return false
	}
	step := func(idx func() int, fwd, back func()) bool {
		before := idx()
		if forward {
			fwd()
		} else {
			back()
		}
		return idx() != before
	}
	switch s.focus {
	case model.RegionWriteups:
		return step(s.writeups.Index, s.writeups.MoveForward, s.writeups.MoveBackward)
	case model.RegionLeaderboard:
		return step(s.leaderboard.Index, s.leaderboard.MoveForward, s.leaderboard.MoveBackward)
	}
	return false
}

// Merge folds a completed batch into the buffers according to policy.
// A feed that failed without cached rows leaves its buffer untouched.
func (s *State) Merge(b coord.Batch, policy string) {
	if s.fresh(b, model.FeedRunning) {
		// Marquee rewrites labels, so running events are never merged by key.
		if policy == config.MergeAppend {
			s.running.Append(b.Running...)
		} else {
			s.running.Replace(b.Running)
		}
	}
	if s.fresh(b, model.FeedPast) {
		mergeInto(s.past, b.Past, policy, model.PastEvent.Key)
	}
	if s.fresh(b, model.FeedWriteups) {
		mergeInto(s.writeups, b.Writeups, policy, model.Writeup.Key)
	}
	if s.fresh(b, model.FeedLeaderboard) {
		mergeInto(s.leaderboard, b.Leaderboard, policy, model.LeaderboardEntry.Key)
	}

	s.results = append([]coord.FeedResult(nil), b.Results...)
	s.merged++
	s.updatedAt = time.Now()
}

func (s *State) fresh(b coord.Batch, kind model.FeedKind) bool {
	res, ok := b.Result(kind)
	return ok && (res.Err == nil || res.Stale)
}

func mergeInto[T any](buf *rotbuf.Buffer[T], items []T, policy string, key func(T) string) {
	switch policy {
	case config.MergeAppend:
		buf.Append(items...)
	case config.MergeDedupe:
		seen := lo.SliceToMap(buf.Items(), func(v T) (string, struct{}) {
			return key(v), struct{}{}
		})
		fresh := lo.Filter(lo.UniqBy(items, key), func(v T, _ int) bool {
			_, dup := seen[key(v)]
			return !dup
		})
		buf.Append(fresh...)
	default:
		buf.Replace(items)
	}
}

// Tick advances the autoscroll counter by one frame and reports whether
// the buffers changed. Every scrollTicks frames the past events scroll
// (once there are more than scrollMinRows of them) and the first running
// event's label rotates.
func (s *State) Tick() bool {
	s.counter--
	if s.counter > 0 {
		return false
	}
	s.counter = s.scrollTicks

	changed := false
	if s.past.Len() > s.scrollMinRows {
		s.past.Scroll()
		changed = true
	}
	if ev, ok := s.running.Get(0); ok && len([]rune(string(ev))) > 1 {
		s.running.Set(0, ev.Marquee())
		changed = true
	}
	return changed
}

// Watched returns the writeups whose event name or tags contain any
// watchlist term, case-insensitively.
func (s *State) Watched() []model.Writeup {
	if len(s.watchlist) == 0 {
		return nil
	}
	return lo.Filter(s.writeups.Items(), func(w model.Writeup, _ int) bool {
		hay := strings.ToLower(w.EventName + " " + w.Tags)
		return lo.SomeBy(s.watchlist, func(term string) bool {
			return strings.Contains(hay, term)
		})
	})
}
