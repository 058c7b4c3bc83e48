package model

// RunningEvent is the label of an event currently in progress.
type RunningEvent string

// Marquee returns the label with its first rune moved to the end.
// Labels shorter than two runes are returned unchanged.
func (e RunningEvent) Marquee() RunningEvent {
	runes := []rune(string(e))
	if len(runes) < 2 {
		return e
	}
	return RunningEvent(string(runes[1:]) + string(runes[0]))
}

// PastEvent is a finished event with its cleaned date range.
type PastEvent struct {
	Name string
	Date string
}

// Key identifies the event for deduplication.
func (e PastEvent) Key() string {
	return e.Name + "\x00" + e.Date
}

// LeaderboardEntry is one team row of the yearly rating.
// The source table orders columns rank, team, points, country.
type LeaderboardEntry struct {
	Rank    string
	Team    string
	Country string
	Points  string
}

func (e LeaderboardEntry) Key() string {
	return e.Team
}

// Writeup is one row of the writeups table, in column order.
type Writeup struct {
	Title     string
	EventName string
	Tags      string
	Link      string
	Extra     string
}

func (w Writeup) Key() string {
	return w.Title + "\x00" + w.EventName
}
