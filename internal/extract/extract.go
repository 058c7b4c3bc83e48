// Package extract turns CTFtime pages into ordered rows of strings and casts
// those rows into the typed records in package model.
//
// Three feeds are HTML tables walked row by row with goquery; the running
// events feed is RSS read with a pull parser so the channel title keeps its
// position ahead of the item titles.
package extract

import (
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/abelbrown/ctfterm/internal/model"
)

// Row is one extracted record before it is cast into its typed entity.
type Row []string

// Page is the result of walking one feed document.
type Page struct {
	Rows []Row
	// Entries counts rows (or RSS items) seen in the document, kept or not.
	// Only used as a feed-health signal.
	Entries int
}

const (
	// pastEventCells caps how many cells of a past-events row are read.
	pastEventCells = 2
	// writeupTagsCell is the ordinal, among non-empty cells, of the tags column.
	writeupTagsCell = 2

	dateSeparator = " — "
	// dateSuffixLen is the width of the ", HH:MM UTC" tail stripped from the end date.
	dateSuffixLen = 11
)

// Extract returns the rows of a feed document.
func Extract(kind model.FeedKind, r io.Reader) ([]Row, error) {
	page, err := Parse(kind, r)
	if err != nil {
		return nil, err
	}
	return page.Rows, nil
}

// Parse walks a feed document and returns its rows with the entry count.
// Errors are *Error values of kind ErrParse. A page without a single table
// row, or a feed without a title, is a parse failure: it is what a
// maintenance or challenge page served with 200 looks like.
func Parse(kind model.FeedKind, r io.Reader) (Page, error) {
	if kind == model.FeedRunning {
		page, err := parseRSS(r)
		if err != nil {
			return Page{}, ParseError(kind, err)
		}
		return page, nil
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Page{}, ParseError(kind, err)
	}

	var page Page
	switch kind {
	case model.FeedPast:
		page = walkRows(doc, pastEventRow)
	case model.FeedWriteups:
		page = walkRows(doc, writeupRow)
	case model.FeedLeaderboard:
		page = walkRows(doc, leaderboardRow)
	default:
		return Page{}, ParseError(kind, errors.New("no extractor for feed"))
	}
	if page.Entries == 0 {
		return Page{}, ParseError(kind, errNoTable)
	}
	return page, nil
}

// walkRows applies rowFn to every table row in the document and keeps the
// rows that produced at least one cell.
func walkRows(doc *goquery.Document, rowFn func(cells *goquery.Selection) Row) Page {
	var page Page
	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		page.Entries++
		if row := rowFn(tr.Find("td")); len(row) > 0 {
			page.Rows = append(page.Rows, row)
		}
	})
	return page
}

func pastEventRow(cells *goquery.Selection) Row {
	var row Row
	cells.EachWithBreak(func(i int, td *goquery.Selection) bool {
		if i >= pastEventCells {
			return false
		}
		text, ok := firstText(fragments(td))
		if !ok {
			return true
		}
		if i == 1 {
			text = CleanDate(text)
		}
		row = append(row, text)
		return true
	})
	return row
}

func writeupRow(cells *goquery.Selection) Row {
	var row Row
	cells.Each(func(_ int, td *goquery.Selection) {
		frags := fragments(td)
		text, ok := firstText(frags)
		if !ok {
			return
		}
		if len(row) == writeupTagsCell {
			text = joinTags(frags)
		}
		row = append(row, text)
	})
	return row
}

func leaderboardRow(cells *goquery.Selection) Row {
	var row Row
	cells.Each(func(_ int, td *goquery.Selection) {
		if text, ok := firstText(fragments(td)); ok {
			row = append(row, text)
		}
	})
	return row
}

// fragments returns every text node under the selection in document order.
func fragments(s *goquery.Selection) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			out = append(out, n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return out
}

// firstText returns the first fragment with visible text, trimmed.
func firstText(frags []string) (string, bool) {
	for _, f := range frags {
		if t := strings.TrimSpace(f); t != "" {
			return t, true
		}
	}
	return "", false
}

// joinTags builds the tags column. A fragment containing a blank line counts
// as a single space; the surviving fragments are joined with single spaces.
func joinTags(frags []string) string {
	parts := make([]string, 0, len(frags))
	for _, f := range frags {
		if strings.Contains(f, "\n\n") {
			f = " "
		}
		if t := strings.TrimSpace(f); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// CleanDate shortens a CTFtime date range such as
// "12 May, 09:00 UTC — 14 May 2023, 09:00 UTC" to "12 May — 14 May 2023".
//
// It is fixed-offset surgery tied to that format: first the span from the
// first comma up to the " — " separator is removed, then dateSuffixLen bytes
// starting at the next comma. A missing comma or separator skips its pass.
func CleanDate(s string) string {
	if comma := strings.Index(s, ","); comma >= 0 {
		if dash := strings.Index(s, dateSeparator); dash > comma {
			s = s[:comma] + s[dash:]
		}
	}
	if comma := strings.Index(s, ","); comma >= 0 {
		end := min(comma+dateSuffixLen, len(s))
		for end < len(s) && !utf8.RuneStart(s[end]) {
			end++
		}
		s = s[:comma] + s[end:]
	}
	return s
}
