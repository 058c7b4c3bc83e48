package extract

import "github.com/abelbrown/ctfterm/internal/model"

// Minimum fields a row needs to become a record.
const (
	pastEventFields   = 2
	leaderboardFields = 4
	writeupFields     = 5
)

// PastEvents casts rows into past events, dropping rows with fewer than two
// fields. The second return value is the number of rows dropped.
func PastEvents(rows []Row) ([]model.PastEvent, int) {
	out := make([]model.PastEvent, 0, len(rows))
	dropped := 0
	for _, r := range rows {
		if len(r) < pastEventFields {
			dropped++
			continue
		}
		out = append(out, model.PastEvent{Name: r[0], Date: r[1]})
	}
	return out, dropped
}

// LeaderboardEntries casts [rank, team, points, country] rows into entries,
// swapping points and country into the record's schema.
func LeaderboardEntries(rows []Row) ([]model.LeaderboardEntry, int) {
	out := make([]model.LeaderboardEntry, 0, len(rows))
	dropped := 0
	for _, r := range rows {
		if len(r) < leaderboardFields {
			dropped++
			continue
		}
		out = append(out, model.LeaderboardEntry{
			Rank:    r[0],
			Team:    r[1],
			Country: r[3],
			Points:  r[2],
		})
	}
	return out, dropped
}

// Writeups maps [title, event, tags, link, extra] rows onto Writeup records.
func Writeups(rows []Row) ([]model.Writeup, int) {
	out := make([]model.Writeup, 0, len(rows))
	dropped := 0
	for _, r := range rows {
		if len(r) < writeupFields {
			dropped++
			continue
		}
		out = append(out, model.Writeup{
			Title:     r[0],
			EventName: r[1],
			Tags:      r[2],
			Link:      r[3],
			Extra:     r[4],
		})
	}
	return out, dropped
}

// RunningEvents skips row 0 (the feed's own title) and keeps the first field
// of every other row. Empty rows are dropped.
func RunningEvents(rows []Row) ([]model.RunningEvent, int) {
	if len(rows) == 0 {
		return nil, 0
	}
	out := make([]model.RunningEvent, 0, len(rows)-1)
	dropped := 0
	for _, r := range rows[1:] {
		if len(r) == 0 || r[0] == "" {
			dropped++
			continue
		}
		out = append(out, model.RunningEvent(r[0]))
	}
	return out, dropped
}
