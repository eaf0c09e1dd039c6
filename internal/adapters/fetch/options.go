package fetch

import (
	"net/http"
	"time"

	"github.com/okian/venuemap/pkg/logger"
)

// Option applies a configuration option to the HTTPFetcher.
type Option func(*HTTPFetcher)

// WithTTL sets how long a successful document is served from memory.
func WithTTL(ttl time.Duration) Option {
	return func(f *HTTPFetcher) {
		if ttl > 0 {
			f.ttl = ttl
		}
	}
}

// WithTimeout bounds a single upstream request.
func WithTimeout(timeout time.Duration) Option {
	return func(f *HTTPFetcher) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// WithMaxBodyBytes caps an upstream response body.
func WithMaxBodyBytes(n int64) Option {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBody = n
		}
	}
}

// WithHTTPClient replaces the HTTP client. Its Timeout is left alone when set.
func WithHTTPClient(c *http.Client) Option {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(f *HTTPFetcher) {
		if now != nil {
			f.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(f *HTTPFetcher) {
		f.logger = l
	}
}
