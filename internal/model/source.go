// Package model holds the typed records ctfterm extracts from CTFtime and the
// focus regions the dashboard cycles through.
package model

import "fmt"

// FeedKind identifies one of the four upstream feeds.
type FeedKind string

const (
	FeedRunning     FeedKind = "running"
	FeedPast        FeedKind = "past"
	FeedWriteups    FeedKind = "writeups"
	FeedLeaderboard FeedKind = "leaderboard"
)

// AllFeeds returns the feeds in the order they are fetched and displayed.
func AllFeeds() []FeedKind {
	return []FeedKind{FeedRunning, FeedPast, FeedWriteups, FeedLeaderboard}
}

// ParseFeedKind converts a config or database string into a FeedKind.
func ParseFeedKind(s string) (FeedKind, error) {
	switch k := FeedKind(s); k {
	case FeedRunning, FeedPast, FeedWriteups, FeedLeaderboard:
		return k, nil
	}
	return "", fmt.Errorf("unknown feed kind %q", s)
}

// Title is the panel heading for the feed.
func (k FeedKind) Title() string {
	switch k {
	case FeedRunning:
		return "Now Running"
	case FeedPast:
		return "Past Events"
	case FeedWriteups:
		return "Write Ups"
	case FeedLeaderboard:
		return "Leaderboard"
	}
	return string(k)
}

// Source pairs a feed with the URL it is scraped from.
type Source struct {
	Kind FeedKind
	URL  string
}
