package model

// Region names one of the five display regions that can hold focus.
type Region int

const (
	RegionWatchlist Region = iota
	RegionRunning
	RegionPast
	RegionWriteups
	RegionLeaderboard

	// NumRegions is the number of focusable regions.
	NumRegions = 5
)

// Next wraps forward: (r+1) mod 5.
func (r Region) Next() Region {
	return (r + 1) % NumRegions
}

// Prev is the exact inverse of Next: 0 jumps to the last region.
func (r Region) Prev() Region {
	if r <= 0 {
		return NumRegions - 1
	}
	return r - 1
}

// Navigable reports whether advance/retreat keys move this region's buffer.
func (r Region) Navigable() bool {
	return r == RegionWriteups || r == RegionLeaderboard
}

func (r Region) String() string {
	switch r {
	case RegionWatchlist:
		return "watchlist"
	case RegionRunning:
		return "running"
	case RegionPast:
		return "past"
	case RegionWriteups:
		return "writeups"
	case RegionLeaderboard:
		return "leaderboard"
	}
	return "unknown"
}
