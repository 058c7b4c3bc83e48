package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/ctfterm/internal/model"
)

const pastEventsHTML = `<html><body><table>
<tr><th>Name</th><th>Date</th><th>Format</th></tr>
<tr>
  <td><a href="/event/1">Alpha CTF 2023</a></td>
  <td>12 May, 09:00 UTC — 14 May 2023, 09:00 UTC</td>
  <td>Jeopardy</td>
</tr>
<tr>
  <td><a href="/event/2">Beta CTF</a></td>
  <td>01 Jun, 18:00 UTC — 02 Jun 2023, 18:00 UTC</td>
  <td>Attack-Defense</td>
  <td>ignored</td>
</tr>
<tr><td>Only a name</td></tr>
</table></body></html>`

func TestExtractPastEvents(t *testing.T) {
	rows, err := Extract(model.FeedPast, strings.NewReader(pastEventsHTML))
	require.NoError(t, err)

	// Header row has no td and is discarded.
	require.Len(t, rows, 3)
	assert.Equal(t, Row{"Alpha CTF 2023", "12 May — 14 May 2023"}, rows[0])
	assert.Equal(t, Row{"Beta CTF", "01 Jun — 02 Jun 2023"}, rows[1])
	assert.Equal(t, Row{"Only a name"}, rows[2])

	events, dropped := PastEvents(rows)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, []model.PastEvent{
		{Name: "Alpha CTF 2023", Date: "12 May — 14 May 2023"},
		{Name: "Beta CTF", Date: "01 Jun — 02 Jun 2023"},
	}, events)
}

func TestCleanDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "ctftime range",
			in:   "12 May, 09:00 UTC — 14 May 2023, 09:00 UTC",
			want: "12 May — 14 May 2023",
		},
		{
			name: "comma before separator",
			in:   "May 12, 2023 — May 14, 2023, CTF, Jeopardy",
			want: "May 12 — May 14, Jeopardy",
		},
		{
			name: "no comma",
			in:   "12 May — 14 May 2023",
			want: "12 May — 14 May 2023",
		},
		{
			name: "no separator strips only the suffix",
			in:   "12 May 2023, 09:00 UTC",
			want: "12 May 2023",
		},
		{
			name: "suffix past end of string",
			in:   "12 May, 9",
			want: "12 May",
		},
		{
			name: "separator before comma",
			in:   "12 May — 14 May, 09:00 UTC",
			want: "12 May — 14 May",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanDate(tt.in))
		})
	}
}

func TestCleanDateStripsBothSpans(t *testing.T) {
	in := "May 12, 2023 — May 14, 2023, CTF, Jeopardy"
	got := CleanDate(in)

	assert.NotContains(t, got, ", 2023 — ", "first comma-to-separator span should be gone")
	assert.NotContains(t, got, ", 2023, CTF", "11-byte suffix should be gone")
	assert.True(t, strings.HasPrefix(got, "May 12 — "))
}

func TestCleanDateKeepsUTF8Valid(t *testing.T) {
	// The 11-byte cut would land inside "é"; it must move to the next rune.
	got := CleanDate("a, 12345678é tail")
	assert.Equal(t, "a tail", got)
}

const writeupsHTML = `<table>
<tr><th>Title</th><th>Event</th><th>Tags</th></tr>
<tr>
  <td><a href="/writeup/1">Heap feng shui</a></td>
  <td><a href="/event/9">Alpha CTF</a></td>
  <td><span class="label">pwn</span>

<span class="label">heap</span> <span class="label">glibc</span></td>
  <td>team_a</td>
  <td><a href="https://example.com/wu">link</a></td>
</tr>
<tr>
  <td>Padding oracle</td>
  <td></td>
  <td>Beta CTF</td>
  <td>crypto</td>
  <td>team_b</td>
  <td>link</td>
</tr>
<tr><td>   </td></tr>
</table>`

func TestExtractWriteups(t *testing.T) {
	rows, err := Extract(model.FeedWriteups, strings.NewReader(writeupsHTML))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, Row{"Heap feng shui", "Alpha CTF", "pwn heap glibc", "team_a", "link"}, rows[0])

	// The empty cell does not count towards the tags ordinal.
	assert.Equal(t, Row{"Padding oracle", "Beta CTF", "crypto", "team_b", "link"}, rows[1])

	for _, r := range rows {
		assert.NotContains(t, r[writeupTagsCell], "\n\n")
	}

	writeups, dropped := Writeups(rows)
	assert.Zero(t, dropped)
	assert.Equal(t, model.Writeup{
		Title:     "Heap feng shui",
		EventName: "Alpha CTF",
		Tags:      "pwn heap glibc",
		Link:      "team_a",
		Extra:     "link",
	}, writeups[0])
}

func TestJoinTagsNeverContainsBlankLine(t *testing.T) {
	inputs := [][]string{
		{"pwn", "\n\n", "rev"},
		{"web\n", "\nmisc"},
		{"\n\n\n"},
		{"a\n\nb", "c"},
	}
	for _, frags := range inputs {
		got := joinTags(frags)
		assert.NotContains(t, got, "\n\n", "frags %q", frags)
	}
	assert.Equal(t, "pwn rev", joinTags([]string{"pwn", "\n\n", "rev"}))
}

const leaderboardHTML = `<table>
<tr><th>Place</th><th>Team</th><th>Points</th><th>Country</th></tr>
<tr><td>1</td><td><a href="/team/1">TeamX</a></td><td>1500</td><td>USA</td></tr>
<tr><td>2</td><td>TeamY</td><td>1400</td><td></td></tr>
</table>`

func TestExtractLeaderboard(t *testing.T) {
	rows, err := Extract(model.FeedLeaderboard, strings.NewReader(leaderboardHTML))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{"1", "TeamX", "1500", "USA"}, rows[0])

	entries, dropped := LeaderboardEntries(rows)
	assert.Equal(t, 1, dropped, "row without a country has too few fields")
	require.Len(t, entries, 1)
	assert.Equal(t, model.LeaderboardEntry{Rank: "1", Team: "TeamX", Country: "USA", Points: "1500"}, entries[0])
}

func TestLeaderboardEntriesSwapsColumns(t *testing.T) {
	entries, dropped := LeaderboardEntries([]Row{{"1", "TeamX", "1500", "USA"}})
	assert.Zero(t, dropped)
	assert.Equal(t, []model.LeaderboardEntry{{Rank: "1", Team: "TeamX", Country: "USA", Points: "1500"}}, entries)
}

const runningRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Feed Title</title>
    <link>https://ctftime.org/</link>
    <item>
      <title>Event A</title>
      <link>https://ctftime.org/event/1</link>
    </item>
    <item>
      <title><![CDATA[Event B]]></title>
    </item>
  </channel>
</rss>`

func TestExtractRunningEvents(t *testing.T) {
	page, err := Parse(model.FeedRunning, strings.NewReader(runningRSS))
	require.NoError(t, err)
	assert.Equal(t, 2, page.Entries)
	assert.Equal(t, []Row{{"Feed Title"}, {"Event A"}, {"Event B"}}, page.Rows)

	events, dropped := RunningEvents(page.Rows)
	assert.Zero(t, dropped)
	assert.Equal(t, []model.RunningEvent{"Event A", "Event B"}, events)
}

func TestRunningEventsEmptyFeed(t *testing.T) {
	events, dropped := RunningEvents(nil)
	assert.Empty(t, events)
	assert.Zero(t, dropped)

	events, _ = RunningEvents([]Row{{"Feed Title"}})
	assert.Empty(t, events)
}

func TestExtractMalformedRSS(t *testing.T) {
	_, err := Extract(model.FeedRunning, strings.NewReader(`<rss><channel><title>Feed</title><item>`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))

	var extractErr *Error
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, model.FeedRunning, extractErr.Feed)
}

func TestExtractPartialPageDoesNotPanic(t *testing.T) {
	html := `<table><tr><td>1</td></tr><tr></tr><tr><td>a</td><td>b</td></tr></table>`
	for _, kind := range []model.FeedKind{model.FeedPast, model.FeedWriteups, model.FeedLeaderboard} {
		rows, err := Extract(kind, strings.NewReader(html))
		require.NoError(t, err)

		assert.NotPanics(t, func() {
			PastEvents(rows)
			LeaderboardEntries(rows)
			Writeups(rows)
			RunningEvents(rows)
		})
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("connection refused")
	err := TransportError(model.FeedPast, cause)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrParse))
	assert.Contains(t, err.Error(), "past")

	assert.Nil(t, ShapeError(model.FeedPast, 0))
	assert.True(t, errors.Is(ShapeError(model.FeedPast, 3), ErrShape))
}

func TestParseRejectsPageWithoutRows(t *testing.T) {
	challenge := `<html><body>Checking your browser...</body></html>`
	for _, kind := range []model.FeedKind{model.FeedPast, model.FeedWriteups, model.FeedLeaderboard} {
		_, err := Parse(kind, strings.NewReader(challenge))
		require.Error(t, err, kind)
		assert.True(t, errors.Is(err, ErrParse), kind)
	}

	for _, body := range []string{"", `<rss><channel></channel></rss>`} {
		_, err := Parse(model.FeedRunning, strings.NewReader(body))
		require.Error(t, err, "body %q", body)
		assert.True(t, errors.Is(err, ErrParse), "body %q", body)
	}
}

func TestParseKeepsHeaderOnlyTable(t *testing.T) {
	page, err := Parse(model.FeedLeaderboard, strings.NewReader(`<table><tr><th>Rank</th></tr></table>`))
	require.NoError(t, err)
	assert.Equal(t, 1, page.Entries)
	assert.Empty(t, page.Rows)
}

func TestRunningEventsIgnoreNamespacedTitles(t *testing.T) {
	rss := `<?xml version="1.0"?>
<rss xmlns:media="http://search.yahoo.com/mrss/" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel>
    <title>Feed</title>
    <item><title>A</title><media:title>M</media:title><dc:title>D</dc:title></item>
  </channel>
</rss>`
	page, err := Parse(model.FeedRunning, strings.NewReader(rss))
	require.NoError(t, err)
	assert.Equal(t, []Row{{"Feed"}, {"A"}}, page.Rows)
}
