// Package fetch retrieves upstream JSON documents over HTTP and keeps
// successful responses in a process-wide TTL cache keyed by URL.
package fetch

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/singleflight"

	"github.com/okian/venuemap/pkg/logger"
	"github.com/okian/venuemap/pkg/metrics"
)

const (
	defaultTTL     = time.Hour
	defaultTimeout = 20 * time.Second
	defaultMaxBody = 32 << 20
)

// Status says whether a Document carries a usable body.
type Status int

const (
	StatusMissing Status = iota
	StatusOK
)

func (s Status) String() string {
	if s == StatusOK {
		return "ok"
	}
	return "missing"
}

// Document is the outcome of a fetch. Body is only set when Status is StatusOK.
type Document struct {
	Body   []byte
	Status Status
}

// OK reports whether the document was retrieved.
func (d Document) OK() bool { return d.Status == StatusOK }

// Fetcher retrieves a document by URL. Failures come back as StatusMissing.
type Fetcher interface {
	Fetch(ctx context.Context, url string) Document
}

type entry struct {
	body      []byte
	expiresAt time.Time
}

// HTTPFetcher is a Fetcher backed by net/http with a TTL cache and
// per-URL request coalescing.
type HTTPFetcher struct {
	client  *http.Client
	ttl     time.Duration
	timeout time.Duration
	maxBody int64
	now     func() time.Time
	logger  logger.Logger

	mu      sync.RWMutex
	entries map[string]entry
	flight  singleflight.Group
}

// New creates an HTTPFetcher.
func New(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		ttl:     defaultTTL,
		timeout: defaultTimeout,
		maxBody: defaultMaxBody,
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: f.timeout}
	}
	if f.logger == nil {
		f.logger = logger.Get().Named("fetch")
	}
	return f
}

// Fetch returns the cached document for url while it is fresh, otherwise
// performs a GET. Only HTTP 200 responses are cached.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) Document {
	if body, ok := f.lookup(url); ok {
		metrics.RecordFetch(metrics.FetchHit)
		return Document{Body: body, Status: StatusOK}
	}

	// Callers share one request per URL; a caller leaving early must not
	// cancel it for the rest.
	shared := context.WithoutCancel(ctx)
	out, err, _ := f.flight.Do(url, func() (any, error) {
		if body, ok := f.lookup(url); ok {
			metrics.RecordFetch(metrics.FetchHit)
			return body, nil
		}
		metrics.RecordFetch(metrics.FetchMiss)
		body, err := f.get(shared, url)
		if err != nil {
			return nil, err
		}
		f.store(url, body)
		return body, nil
	})
	if err != nil {
		f.logger.Warn(ctx, "upstream document unavailable", logger.String("url", url), logger.Error(err))
		return Document{Status: StatusMissing}
	}
	return Document{Body: out.([]byte), Status: StatusOK}
}

func (f *HTTPFetcher) get(ctx context.Context, url string) ([]byte, error) {
	start := f.now()
	defer func() {
		metrics.RecordFetchLatency(float64(f.now().Sub(start).Microseconds()) / 1000)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		metrics.RecordFetch(metrics.FetchError)
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		metrics.RecordFetch(metrics.FetchError)
		return nil, errors.Wrap(err, "send request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordFetch(metrics.FetchStatus)
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, errors.Wrapf(ErrUnexpectedStatus, "status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		metrics.RecordFetch(metrics.FetchError)
		return nil, errors.Wrap(err, "read body")
	}
	if int64(len(body)) > f.maxBody {
		metrics.RecordFetch(metrics.FetchError)
		return nil, errors.Wrapf(ErrBodyTooLarge, "limit %d bytes", f.maxBody)
	}

	f.logger.Debug(ctx, "fetched upstream document", logger.String("url", url), logger.Int("bytes", len(body)))
	return body, nil
}

func (f *HTTPFetcher) lookup(url string) ([]byte, bool) {
	f.mu.RLock()
	e, ok := f.entries[url]
	f.mu.RUnlock()
	if !ok || !e.expiresAt.After(f.now()) {
		return nil, false
	}
	return e.body, true
}

func (f *HTTPFetcher) store(url string, body []byte) {
	f.mu.Lock()
	f.entries[url] = entry{body: body, expiresAt: f.now().Add(f.ttl)}
	n := len(f.entries)
	f.mu.Unlock()
	metrics.UpdateCacheEntries(n)
}

// Purge drops expired entries and returns how many were removed.
func (f *HTTPFetcher) Purge(_ context.Context) int {
	now := f.now()
	f.mu.Lock()
	removed := 0
	for url, e := range f.entries {
		if !e.expiresAt.After(now) {
			delete(f.entries, url)
			removed++
		}
	}
	n := len(f.entries)
	f.mu.Unlock()

	metrics.UpdateCacheEntries(n)
	if removed > 0 {
		metrics.RecordCacheEvicted(removed)
	}
	return removed
}

// Len returns the number of cached documents, fresh or not.
func (f *HTTPFetcher) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}
