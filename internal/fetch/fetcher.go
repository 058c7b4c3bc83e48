// Package fetch retrieves raw feed pages over HTTP.
//
// Every request carries the configured User-Agent, waits on a shared rate
// limiter and is retried with exponential backoff on transport errors and
// 5xx/429 responses. Parsing is left to the extract package.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/abelbrown/ctfterm/internal/extract"
	"github.com/abelbrown/ctfterm/internal/model"
)

// maxBodySize caps how much of a response is read.
const maxBodySize = 8 << 20

// ErrBodyTooLarge is returned when a response exceeds maxBodySize.
var ErrBodyTooLarge = errors.New("response body too large")

// Options configures a Fetcher.
type Options struct {
	Timeout   time.Duration // per attempt
	Retries   int           // extra attempts after the first
	RateLimit float64       // requests per second, 0 = unlimited
	UserAgent string
	RetryWait time.Duration // initial backoff interval
}

// Fetcher performs rate limited, retried GET requests.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	retries   int
	userAgent string
	retryWait time.Duration
}

// NewFetcher creates a Fetcher from opts.
func NewFetcher(opts Options) *Fetcher {
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	wait := opts.RetryWait
	if wait <= 0 {
		wait = 500 * time.Millisecond
	}
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}
	return &Fetcher{
		client:    &http.Client{Timeout: opts.Timeout},
		limiter:   rate.NewLimiter(limit, 1),
		retries:   retries,
		userAgent: opts.UserAgent,
		retryWait: wait,
	}
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %s", e.Status)
}

// Fetch returns the body of src.URL. Failures are wrapped as
// extract.ErrTransport errors for src.Kind.
func (f *Fetcher) Fetch(ctx context.Context, src model.Source) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, extract.TransportError(src.Kind, err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.retryWait
	b.MaxInterval = 10 * f.retryWait
	b.MaxElapsedTime = 0

	var body []byte
	op := func() error {
		var err error
		body, err = f.get(ctx, src.URL)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.retries)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, extract.TransportError(src.Kind, err)
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, backoff.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &StatusError{Code: resp.StatusCode, Status: resp.Status}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, serr
		}
		return nil, backoff.Permanent(serr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, backoff.Permanent(fmt.Errorf("fetch %s: %w (limit %d bytes)", url, ErrBodyTooLarge, maxBodySize))
	}
	return body, nil
}
