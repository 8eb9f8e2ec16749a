package httpclient

import (
	"context"
	"math/rand"
	"net/http"
	"time"
)

// Profile represents the header profile an HTTP client presents upstream.
type Profile string

const (
	// FeedProfile sends feed-flavored Accept headers. Used for discovery
	// endpoints (sitemaps, RSS/Atom feeds).
	FeedProfile Profile = "feed"

	// BrowserProfile rotates browser user agents. Used for article pages,
	// which often reject non-browser clients with 406/403.
	BrowserProfile Profile = "browser"
)

// Rotated on every request made with BrowserProfile.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:89.0) Gecko/20100101 Firefox/89.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
}

// Client wraps an http.Client with a header profile.
type Client struct {
	client  *http.Client
	profile Profile
}

// NewClient creates a new HTTP client with the given profile and per-request
// timeout.
func NewClient(profile Profile, timeout time.Duration) *Client {
	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Follow up to 10 redirects
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	return &Client{
		client:  client,
		profile: profile,
	}
}

// Do executes an HTTP request with the appropriate headers for the profile.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.setHeaders(req)
	return c.client.Do(req)
}

// Get is a convenience method for context-aware GET requests.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// setHeaders sets the appropriate headers based on the client profile.
func (c *Client) setHeaders(req *http.Request) {
	switch c.profile {
	case BrowserProfile:
		req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "es-ES,es;q=0.9,en;q=0.8")
		req.Header.Set("Connection", "keep-alive")

	case FeedProfile:
		req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
		req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml, application/atom+xml;q=0.9, */*;q=0.8")

	default:
		// Go's default User-Agent
	}
}
