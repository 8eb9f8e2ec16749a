package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"news-ingest/pkg/httpclient"
)

func newTestFetcher(maxRetries int) *Fetcher {
	return New(Config{
		Timeout:     2 * time.Second,
		MaxRetries:  maxRetries,
		BackoffBase: time.Millisecond,
		BackoffCap:  5 * time.Millisecond,
	}, httpclient.FeedProfile)
}

func TestFetcher_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Header().Set("Last-Modified", "Fri, 01 Mar 2024 10:00:00 GMT")
		w.Write([]byte("<urlset/>"))
	}))
	defer server.Close()

	f := newTestFetcher(3)
	outcome := f.Fetch(context.Background(), server.URL)

	if !outcome.OK() {
		t.Fatalf("Expected success, got %v", outcome.Err)
	}
	if string(outcome.Body) != "<urlset/>" {
		t.Errorf("Unexpected body: %q", outcome.Body)
	}
	if outcome.ContentType != "application/xml" {
		t.Errorf("Unexpected content type: %q", outcome.ContentType)
	}
	if outcome.LastModified != "Fri, 01 Mar 2024 10:00:00 GMT" {
		t.Errorf("Last-Modified header not captured: %q", outcome.LastModified)
	}
}

func TestFetcher_RetriesTransientServerError(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := newTestFetcher(3)
	outcome := f.Fetch(context.Background(), server.URL)

	if !outcome.OK() {
		t.Fatalf("Expected recovery after retries, got %v", outcome.Err)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestFetcher_NotFoundIsPermanent(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := newTestFetcher(3)
	outcome := f.Fetch(context.Background(), server.URL)

	if outcome.OK() {
		t.Fatal("Expected failure on 404")
	}
	var statusErr *HTTPStatusError
	if !errors.As(outcome.Err, &statusErr) || statusErr.Code != http.StatusNotFound {
		t.Errorf("Expected HTTPStatusError 404, got %v", outcome.Err)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("404 must not be retried: %d attempts", got)
	}
	if outcome.RetriesExhausted {
		t.Error("Permanent failure should not flag RetriesExhausted")
	}
}

func TestFetcher_TooManyRequestsIsTransient(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := newTestFetcher(2)
	outcome := f.Fetch(context.Background(), server.URL)

	if !outcome.OK() {
		t.Fatalf("Expected retry after 429, got %v", outcome.Err)
	}
	if got := atomic.LoadInt32(&attempts); got != 2 {
		t.Errorf("Expected 2 attempts, got %d", got)
	}
}

func TestFetcher_PersistentFailureExhaustsRetries(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := newTestFetcher(2)
	outcome := f.Fetch(context.Background(), server.URL)

	if outcome.OK() {
		t.Fatal("Expected failure after exhausting retries")
	}
	if !outcome.RetriesExhausted {
		t.Error("Expected RetriesExhausted to be set")
	}
	// first attempt plus two retries
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestFetcher_MalformedURL(t *testing.T) {
	f := newTestFetcher(3)
	outcome := f.Fetch(context.Background(), "::not-a-url")

	if !errors.Is(outcome.Err, ErrMalformedURL) {
		t.Errorf("Expected ErrMalformedURL, got %v", outcome.Err)
	}
}

func TestFetcher_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	f := newTestFetcher(1)
	outcome := f.Fetch(context.Background(), url)

	if !errors.Is(outcome.Err, ErrConnectionFailed) {
		t.Errorf("Expected ErrConnectionFailed, got %v", outcome.Err)
	}
	if !outcome.RetriesExhausted {
		t.Error("Connection failures are transient and should exhaust retries")
	}
}

func TestFetcher_BodySizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 2048))
	}))
	defer server.Close()

	f := New(Config{Timeout: 2 * time.Second, MaxRetries: 1, MaxBodySize: 1024}, httpclient.FeedProfile)
	outcome := f.Fetch(context.Background(), server.URL)

	if !outcome.OK() {
		t.Fatalf("Expected success, got %v", outcome.Err)
	}
	if len(outcome.Body) != 1024 {
		t.Errorf("Expected body truncated to 1024 bytes, got %d", len(outcome.Body))
	}
}

func TestFetcher_PolitenessDelay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := New(Config{
		Timeout:      2 * time.Second,
		MaxRetries:   1,
		RequestDelay: 50 * time.Millisecond,
	}, httpclient.FeedProfile)

	start := time.Now()
	f.Fetch(context.Background(), server.URL)
	f.Fetch(context.Background(), server.URL)
	elapsed := time.Since(start)

	if elapsed < 50*time.Millisecond {
		t.Errorf("Second request was not spaced out: elapsed %s", elapsed)
	}
}
