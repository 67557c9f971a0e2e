package mediawiki

import (
	"net/http"
	"sync"
	"time"
)

// HTTPClient is the interface used for making HTTP requests, allowing the
// transport to be swapped out in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RateLimitedHTTPClient wraps an HTTPClient and enforces a minimum
// interval between requests, per the wiki's bot etiquette.
type RateLimitedHTTPClient struct {
	client      HTTPClient
	minInterval time.Duration

	mu          sync.Mutex
	lastRequest time.Time
}

// NewRateLimitedHTTPClient wraps the given client with the given minimum
// interval between requests.
func NewRateLimitedHTTPClient(client HTTPClient, minInterval time.Duration) *RateLimitedHTTPClient {
	return &RateLimitedHTTPClient{client: client, minInterval: minInterval}
}

// Do waits until the interval since the previous request has passed, then
// performs the request.
func (c *RateLimitedHTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < c.minInterval {
		time.Sleep(c.minInterval - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	return c.client.Do(req)
}
