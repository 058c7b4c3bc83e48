// Package coord runs the concurrent fetch-and-extract of every feed and
// hands the dashboard one complete Batch per refresh.
package coord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/ctfterm/internal/extract"
	"github.com/abelbrown/ctfterm/internal/fetch"
	"github.com/abelbrown/ctfterm/internal/logging"
	"github.com/abelbrown/ctfterm/internal/metrics"
	"github.com/abelbrown/ctfterm/internal/model"
	"github.com/abelbrown/ctfterm/internal/otel"
	"github.com/abelbrown/ctfterm/internal/store"
)

// defaultTimeout bounds a single feed when Options.Timeout is unset.
const defaultTimeout = 30 * time.Second

// fetcher interface for dependency injection (testing).
type fetcher interface {
	Fetch(ctx context.Context, src model.Source) ([]byte, error)
}

// Cache keeps the last good page of every feed. *store.Store implements it.
type Cache interface {
	Save(ctx context.Context, kind model.FeedKind, page extract.Page, fetched time.Time) error
	Load(ctx context.Context, kind model.FeedKind) (store.Snapshot, error)
	RecordFailure(ctx context.Context, kind model.FeedKind, cause error) error
}

// Options carries the optional collaborators. Nil fields are skipped.
type Options struct {
	Timeout time.Duration
	Cache   Cache
	Metrics *metrics.Recorder
	Events  *otel.Logger
}

// FeedResult is the outcome of one feed within a refresh.
type FeedResult struct {
	Kind      model.FeedKind
	Rows      []extract.Row
	Entries   int
	Dropped   int // rows too short for their record type
	Err       error
	Stale     bool // Rows came from the cache after Err
	FetchedAt time.Time
	Dur       time.Duration
}

// OK reports whether the feed produced fresh rows.
func (r FeedResult) OK() bool {
	return r.Err == nil
}

// Batch is the product of one refresh. It is built only after every feed
// task has finished.
type Batch struct {
	Running     []model.RunningEvent
	Past        []model.PastEvent
	Writeups    []model.Writeup
	Leaderboard []model.LeaderboardEntry

	Results   []FeedResult // in source order
	Completed int
}

// Result returns the outcome recorded for kind.
func (b Batch) Result(kind model.FeedKind) (FeedResult, bool) {
	for _, r := range b.Results {
		if r.Kind == kind {
			return r, true
		}
	}
	return FeedResult{}, false
}

// Failed returns the number of feeds that ended with an error.
func (b Batch) Failed() int {
	n := 0
	for _, r := range b.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Coordinator fetches every source concurrently.
// Uses context cancellation as the only stop mechanism.
type Coordinator struct {
	fetcher fetcher
	sources []model.Source // immutable after construction
	timeout time.Duration
	cache   Cache
	metrics *metrics.Recorder
	events  *otel.Logger
	logger  *log.Logger
	wg      sync.WaitGroup
}

// NewCoordinator creates a Coordinator with the real fetcher.
func NewCoordinator(f *fetch.Fetcher, sources []model.Source, opts Options) *Coordinator {
	return NewCoordinatorWithFetcher(f, sources, opts)
}

// NewCoordinatorWithFetcher allows injecting a custom fetcher (for testing).
func NewCoordinatorWithFetcher(f fetcher, sources []model.Source, opts Options) *Coordinator {
	sourcesCopy := make([]model.Source, len(sources))
	copy(sourcesCopy, sources)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Coordinator{
		fetcher: f,
		sources: sourcesCopy,
		timeout: timeout,
		cache:   opts.Cache,
		metrics: opts.Metrics,
		events:  opts.Events,
		logger:  logging.WithPrefix("coord"),
	}
}

// Refresh starts a background refresh. The returned channel receives
// exactly one Batch and is then closed.
func (c *Coordinator) Refresh(ctx context.Context) <-chan Batch {
	ch := make(chan Batch, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(ch)
		ch <- c.FetchAll(ctx)
	}()
	return ch
}

// Wait blocks until every refresh goroutine has exited.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// FetchAll fetches and extracts every source in parallel and returns once
// all of them have finished. A failing feed never fails the batch.
func (c *Coordinator) FetchAll(ctx context.Context) Batch {
	results := make([]FeedResult, len(c.sources))

	var g errgroup.Group
	for i, src := range c.sources {
		i, src := i, src
		g.Go(func() error {
			results[i] = c.fetchSource(ctx, src)
			return nil // errors are reported per feed
		})
	}
	_ = g.Wait()

	b := Batch{Results: results, Completed: len(results)}
	for i := range b.Results {
		c.convert(&b, &b.Results[i])
	}
	return b
}

// fetchSource fetches and parses one feed within the per-feed timeout.
func (c *Coordinator) fetchSource(ctx context.Context, src model.Source) FeedResult {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	res := FeedResult{Kind: src.Kind}
	c.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindFetchStart, Source: string(src.Kind)})

	page, err := c.load(fetchCtx, src)
	res.Dur = time.Since(start)
	if err == nil {
		res.Rows, res.Entries, res.FetchedAt = page.Rows, page.Entries, time.Now()
		c.succeeded(ctx, src.Kind, page, res)
		return res
	}

	res.Err = err
	c.failed(ctx, &res)
	return res
}

func (c *Coordinator) load(ctx context.Context, src model.Source) (extract.Page, error) {
	body, err := c.fetcher.Fetch(ctx, src)
	if err != nil {
		if !errors.Is(err, extract.ErrTransport) {
			err = extract.TransportError(src.Kind, err)
		}
		return extract.Page{}, err
	}
	return extract.Parse(src.Kind, bytes.NewReader(body))
}

func (c *Coordinator) succeeded(ctx context.Context, kind model.FeedKind, page extract.Page, res FeedResult) {
	c.logger.Debug("feed fetched", "feed", kind, "rows", len(page.Rows), "entries", page.Entries, "dur", res.Dur)
	c.emit(otel.Event{
		Level:  otel.LevelInfo,
		Kind:   otel.KindFetchComplete,
		Source: string(kind),
		Count:  len(page.Rows),
		Dur:    res.Dur,
	})
	c.metrics.ObserveFetch(string(kind), metrics.OutcomeOK, res.Dur)

	if c.cache == nil {
		return
	}
	// The fetch context may be spent; the save uses the refresh context.
	if err := c.cache.Save(ctx, kind, page, res.FetchedAt); err != nil {
		c.logger.Warn("cache save failed", "feed", kind, "err", err)
	}
}

func (c *Coordinator) failed(ctx context.Context, res *FeedResult) {
	kind := res.Kind
	c.logger.Warn("feed failed", "feed", kind, "err", res.Err, "dur", res.Dur)
	c.emit(otel.Event{
		Level:  otel.LevelError,
		Kind:   otel.KindFetchError,
		Source: string(kind),
		Dur:    res.Dur,
		Err:    res.Err.Error(),
	})

	if c.cache == nil || ctx.Err() != nil {
		c.metrics.ObserveFetch(string(kind), metrics.OutcomeError, res.Dur)
		return
	}
	if err := c.cache.RecordFailure(ctx, kind, res.Err); err != nil {
		c.logger.Warn("cache record failed", "feed", kind, "err", err)
	}

	snap, err := c.cache.Load(ctx, kind)
	if err != nil {
		if !errors.Is(err, store.ErrNotCached) {
			c.logger.Warn("cache load failed", "feed", kind, "err", err)
		}
		c.metrics.ObserveFetch(string(kind), metrics.OutcomeError, res.Dur)
		return
	}

	res.Rows, res.Entries, res.FetchedAt, res.Stale = snap.Page.Rows, snap.Page.Entries, snap.FetchedAt, true
	c.logger.Info("using cached rows", "feed", kind, "rows", len(snap.Page.Rows), "fetched", snap.FetchedAt)
	c.emit(otel.Event{
		Level:  otel.LevelWarn,
		Kind:   otel.KindFetchStale,
		Source: string(kind),
		Count:  len(snap.Page.Rows),
		Msg:    fmt.Sprintf("cached %s", snap.FetchedAt.Local().Format("15:04")),
	})
	c.metrics.ObserveFetch(string(kind), metrics.OutcomeStale, res.Dur)
}

// convert casts the rows of res into typed records on b.
func (c *Coordinator) convert(b *Batch, res *FeedResult) {
	switch res.Kind {
	case model.FeedRunning:
		b.Running, res.Dropped = extract.RunningEvents(res.Rows)
	case model.FeedPast:
		b.Past, res.Dropped = extract.PastEvents(res.Rows)
	case model.FeedWriteups:
		b.Writeups, res.Dropped = extract.Writeups(res.Rows)
	case model.FeedLeaderboard:
		b.Leaderboard, res.Dropped = extract.LeaderboardEntries(res.Rows)
	}

	c.metrics.SetRows(string(res.Kind), len(res.Rows))
	if err := extract.ShapeError(res.Kind, res.Dropped); err != nil {
		c.metrics.AddDropped(string(res.Kind), res.Dropped)
		c.logger.Debug("rows dropped", "feed", res.Kind, "err", err)
	}
}

func (c *Coordinator) emit(e otel.Event) {
	if c.events == nil {
		return
	}
	e.Comp = "coord"
	c.events.Emit(e)
}
