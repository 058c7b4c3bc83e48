package extract

import (
	"errors"
	"fmt"

	"github.com/abelbrown/ctfterm/internal/model"
)

// Sentinel error kinds. Match with errors.Is.
var (
	ErrTransport = errors.New("transport failure")
	ErrParse     = errors.New("parse failure")
	ErrShape     = errors.New("row shape mismatch")
)

var (
	errNoTable = errors.New("no table rows in document")
	errNoTitle = errors.New("no title in feed")
)

// Error reports a failure to turn one feed into rows.
// It unwraps to both its Kind and the underlying cause.
type Error struct {
	Feed model.FeedKind
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Feed, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Feed, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// TransportError wraps a network failure for feed.
func TransportError(feed model.FeedKind, err error) error {
	return &Error{Feed: feed, Kind: ErrTransport, Err: err}
}

// ParseError wraps a markup failure for feed.
func ParseError(feed model.FeedKind, err error) error {
	return &Error{Feed: feed, Kind: ErrParse, Err: err}
}

// ShapeError reports rows dropped from feed for having too few fields.
// Returns nil when nothing was dropped.
func ShapeError(feed model.FeedKind, dropped int) error {
	if dropped <= 0 {
		return nil
	}
	return &Error{Feed: feed, Kind: ErrShape, Err: fmt.Errorf("%d rows dropped", dropped)}
}
