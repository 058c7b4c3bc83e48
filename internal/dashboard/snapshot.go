package dashboard

import (
	"time"

	"github.com/abelbrown/ctfterm/internal/model"
	"github.com/abelbrown/ctfterm/internal/otel"
)

// FeedStatus summarizes the latest refresh of one feed.
type FeedStatus struct {
	Kind      model.FeedKind
	Rows      int
	Dropped   int
	Err       string
	Stale     bool
	FetchedAt time.Time
}

// Snapshot is an immutable copy of State handed to the renderer. Nothing
// in it aliases loop-owned memory.
type Snapshot struct {
	Focus       model.Region
	Running     []model.RunningEvent
	Past        []model.PastEvent
	Writeups    []model.Writeup
	Leaderboard []model.LeaderboardEntry
	Watched     []model.Writeup

	PastIndex        int
	WriteupsIndex    int
	LeaderboardIndex int

	Loading    bool // no batch merged yet
	Refreshing bool
	Feeds      []FeedStatus
	UpdatedAt  time.Time
	Recent     []otel.Event
	Frame      uint64
}

// Snapshot copies the current state.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Focus:            s.focus,
		Running:          s.running.Items(),
		Past:             s.past.Items(),
		Writeups:         s.writeups.Items(),
		Leaderboard:      s.leaderboard.Items(),
		Watched:          s.Watched(),
		PastIndex:        s.past.Index(),
		WriteupsIndex:    s.writeups.Index(),
		LeaderboardIndex: s.leaderboard.Index(),
		Loading:          s.merged == 0,
		UpdatedAt:        s.updatedAt,
	}
	for _, r := range s.results {
		fs := FeedStatus{
			Kind:      r.Kind,
			Rows:      len(r.Rows),
			Dropped:   r.Dropped,
			Stale:     r.Stale,
			FetchedAt: r.FetchedAt,
		}
		if r.Err != nil {
			fs.Err = r.Err.Error()
		}
		snap.Feeds = append(snap.Feeds, fs)
	}
	return snap
}

// Failed returns the feeds whose latest refresh ended with an error.
func (s Snapshot) Failed() []FeedStatus {
	var out []FeedStatus
	for _, f := range s.Feeds {
		if f.Err != "" {
			out = append(out, f)
		}
	}
	return out
}
