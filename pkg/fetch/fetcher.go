package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"news-ingest/pkg/httpclient"
)

// Network failure classification. Transient failures are retried with
// backoff; permanent ones are not.
var (
	ErrTimeout          = errors.New("request timed out")
	ErrConnectionFailed = errors.New("connection failed")
	ErrMalformedURL     = errors.New("malformed url")
)

// HTTPStatusError is returned for non-2xx responses. 5xx and 429 are
// treated as transient, all other 4xx as permanent.
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

// Outcome is the result of a fetch. All failure is represented here; Fetch
// never panics or leaks transport errors past this boundary.
type Outcome struct {
	Body             []byte
	ContentType      string
	LastModified     string
	Err              error
	RetriesExhausted bool
}

// OK reports whether the fetch produced a response body.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Config holds the retry and politeness knobs for one fetcher. Zero values
// fall back to the defaults below.
type Config struct {
	Timeout      time.Duration // per-attempt timeout
	MaxRetries   int           // retries after the first attempt
	BackoffBase  time.Duration // base delay, doubled per attempt
	BackoffCap   time.Duration // upper bound on the backoff delay
	RequestDelay time.Duration // minimum spacing between requests (politeness)
	MaxBodySize  int64         // response body read limit in bytes
	Verbose      bool
}

const (
	defaultTimeout     = 15 * time.Second
	defaultMaxRetries  = 3
	defaultBackoffBase = 500 * time.Millisecond
	defaultBackoffCap  = 30 * time.Second
	defaultMaxBody     = 10 << 20
)

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = defaultBackoffBase
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = defaultBackoffCap
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = defaultMaxBody
	}
}

// Fetcher performs HTTP retrieval with timeout, retry, backoff and a
// politeness delay. One fetcher serves one source's sequential request
// stream; requests through the same fetcher never overlap.
type Fetcher struct {
	client *httpclient.Client
	cfg    Config

	mu          sync.Mutex
	lastRequest time.Time
}

// New creates a fetcher with the given config and header profile.
func New(cfg Config, profile httpclient.Profile) *Fetcher {
	cfg.applyDefaults()
	return &Fetcher{
		client: httpclient.NewClient(profile, cfg.Timeout),
		cfg:    cfg,
	}
}

// Fetch retrieves rawURL, retrying transient failures (timeout, connection
// reset, 5xx, 429) with exponential backoff and jitter. Permanent failures
// (malformed URL, other 4xx) return immediately.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) Outcome {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return Outcome{Err: fmt.Errorf("%w: %q", ErrMalformedURL, rawURL)}
	}

	var lastErr error
	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := f.backoffDelay(attempt)
			if f.cfg.Verbose {
				log.Printf("Fetcher: retry %d/%d for %s in %s (last error: %v)",
					attempt, f.cfg.MaxRetries, rawURL, delay, lastErr)
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return Outcome{Err: fmt.Errorf("%w: %v", ErrTimeout, ctx.Err()), RetriesExhausted: false}
			}
		}

		f.waitPoliteness(ctx)

		outcome, retryable := f.attempt(ctx, rawURL)
		if outcome.Err == nil {
			return outcome
		}
		lastErr = outcome.Err
		if !retryable {
			return outcome
		}
		if ctx.Err() != nil {
			break
		}
	}

	return Outcome{Err: lastErr, RetriesExhausted: true}
}

// attempt performs a single request. The second return value reports
// whether the failure is worth retrying.
func (f *Fetcher) attempt(ctx context.Context, rawURL string) (Outcome, bool) {
	resp, err := f.client.Get(ctx, rawURL)
	if err != nil {
		return Outcome{Err: classifyTransportError(err)}, true
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &HTTPStatusError{Code: resp.StatusCode}
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return Outcome{Err: statusErr}, retryable
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodySize))
	if err != nil {
		return Outcome{Err: fmt.Errorf("%w: reading body: %v", ErrConnectionFailed, err)}, true
	}

	return Outcome{
		Body:         body,
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, false
}

// backoffDelay computes base * 2^(attempt-1) capped, with jitter in the
// upper half of the window.
func (f *Fetcher) backoffDelay(attempt int) time.Duration {
	delay := f.cfg.BackoffBase << (attempt - 1)
	if delay > f.cfg.BackoffCap {
		delay = f.cfg.BackoffCap
	}
	half := delay / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

// waitPoliteness enforces the minimum inter-request spacing for this
// fetcher's host.
func (f *Fetcher) waitPoliteness(ctx context.Context) {
	if f.cfg.RequestDelay <= 0 {
		return
	}

	f.mu.Lock()
	wait := f.cfg.RequestDelay - time.Since(f.lastRequest)
	if wait > 0 {
		f.mu.Unlock()
		select {
		case <-time.After(wait):
		case <-ctx.Done():
		}
		f.mu.Lock()
	}
	f.lastRequest = time.Now()
	f.mu.Unlock()
}

// classifyTransportError maps transport-level errors onto the fetch error
// taxonomy.
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
}
