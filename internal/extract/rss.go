package extract

import (
	"io"
	"strings"

	xpp "github.com/mmcdole/goxpp"
	"golang.org/x/net/html/charset"
)

// parseRSS streams the document and captures the text of every <title>.
// The channel title comes first. Each <item> bumps Entries.
func parseRSS(r io.Reader) (Page, error) {
	p := xpp.NewXMLPullParser(r, false, charset.NewReaderLabel)

	var page Page
	for {
		ev, err := p.Next()
		if err != nil {
			return Page{}, err
		}
		if ev == xpp.EndDocument {
			if len(page.Rows) == 0 {
				return Page{}, errNoTitle
			}
			return page, nil
		}
		if ev != xpp.StartTag {
			continue
		}

		switch strings.ToLower(p.Name) {
		case "title":
			if !unprefixed(p) {
				continue
			}
			text, err := p.NextText()
			if err != nil {
				return Page{}, err
			}
			page.Rows = append(page.Rows, Row{strings.TrimSpace(text)})
		case "item":
			page.Entries++
		}
	}
}

// unprefixed reports whether the current element was written without a
// namespace prefix, so <media:title> and <dc:title> are not feed titles.
func unprefixed(p *xpp.XMLPullParser) bool {
	if p.Space == "" {
		return true
	}
	prefix, ok := p.Spaces[p.Space]
	return ok && prefix == ""
}
