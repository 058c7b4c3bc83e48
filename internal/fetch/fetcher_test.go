package fetch

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abelbrown/ctfterm/internal/config"
	"github.com/abelbrown/ctfterm/internal/extract"
	"github.com/abelbrown/ctfterm/internal/model"
)

func testFetcher(retries int) *Fetcher {
	return NewFetcher(Options{
		Timeout:   2 * time.Second,
		Retries:   retries,
		UserAgent: "ctfterm-test",
		RetryWait: time.Millisecond,
	})
}

func TestFetchReturnsBody(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<table><tr><td>x</td></tr></table>"))
	}))
	defer server.Close()

	body, err := testFetcher(0).Fetch(context.Background(), model.Source{Kind: model.FeedPast, URL: server.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(body) != "<table><tr><td>x</td></tr></table>" {
		t.Errorf("unexpected body %q", body)
	}
	if gotUA != "ctfterm-test" {
		t.Errorf("User-Agent=%q", gotUA)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	body, err := testFetcher(2).Fetch(context.Background(), model.Source{Kind: model.FeedRunning, URL: server.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(body) != "ok" || calls.Load() != 3 {
		t.Errorf("body=%q calls=%d", body, calls.Load())
	}
}

func TestFetchGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := testFetcher(1).Fetch(context.Background(), model.Source{Kind: model.FeedWriteups, URL: server.URL})
	if !errors.Is(err, extract.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	var serr *StatusError
	if !errors.As(err, &serr) || serr.Code != http.StatusBadGateway {
		t.Errorf("expected StatusError 502, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls=%d, want 2", calls.Load())
	}
}

func TestFetch404IsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testFetcher(3).Fetch(context.Background(), model.Source{Kind: model.FeedLeaderboard, URL: server.URL})
	if err == nil {
		t.Fatal("expected error for 404")
	}
	var ferr *extract.Error
	if !errors.As(err, &ferr) || ferr.Feed != model.FeedLeaderboard {
		t.Errorf("expected *extract.Error for leaderboard, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls=%d, want 1", calls.Load())
	}
}

func TestFetchRejectsOversizeBody(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write(bytes.Repeat([]byte("x"), maxBodySize+1))
	}))
	defer server.Close()

	_, err := testFetcher(2).Fetch(context.Background(), model.Source{Kind: model.FeedWriteups, URL: server.URL})
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
	if !errors.Is(err, extract.ErrTransport) {
		t.Errorf("expected transport error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("oversize body retried %d times", calls.Load())
	}
}

func TestFetchAcceptsBodyAtLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("x"), maxBodySize))
	}))
	defer server.Close()

	body, err := testFetcher(0).Fetch(context.Background(), model.Source{Kind: model.FeedWriteups, URL: server.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(body) != maxBodySize {
		t.Errorf("len(body)=%d, want %d", len(body), maxBodySize)
	}
}

func TestFetchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testFetcher(0).Fetch(ctx, model.Source{Kind: model.FeedPast, URL: "http://127.0.0.1:1"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFetchTimeout(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := testFetcher(2).Fetch(ctx, model.Source{Kind: model.FeedPast, URL: server.URL})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Errorf("fetch ignored context deadline: %v", time.Since(start))
	}
}

func TestDefaultSources(t *testing.T) {
	cfg := config.New()
	cfg.BaseURL = "http://example.test"

	sources := DefaultSources(cfg)
	if len(sources) != 4 {
		t.Fatalf("expected 4 sources, got %d", len(sources))
	}
	for i, kind := range model.AllFeeds() {
		if sources[i].Kind != kind {
			t.Errorf("sources[%d].Kind=%s, want %s", i, sources[i].Kind, kind)
		}
	}
	if sources[1].URL != "http://example.test/event/list/past" {
		t.Errorf("past URL=%q", sources[1].URL)
	}
}
