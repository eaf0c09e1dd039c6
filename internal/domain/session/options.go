package session

import "time"

// Option applies a configuration option to the in-memory Store.
type Option func(*inMemoryStore)

// WithMaxSize sets the maximum number of sessions kept in memory.
// If maxSize <= 0 the store is unbounded.
func WithMaxSize(maxSize int) Option {
	return func(s *inMemoryStore) {
		s.maxSize = maxSize
	}
}

// WithTTL expires sessions idle for longer than ttl. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *inMemoryStore) {
		s.ttl = ttl
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *inMemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}
