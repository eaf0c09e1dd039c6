// Package session keeps each browser's Selection between requests.
package session

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/venuemap/internal/domain/selection"
	"github.com/okian/venuemap/pkg/metrics"
)

// Store maps a session id to its Selection. Selections are values, so
// concurrent writers for one session are last-writer-wins.
type Store interface {
	// Get returns the session's selection. Unknown or expired ids report false.
	Get(ctx context.Context, id string) (selection.Selection, bool)

	// Put stores sel under id, evicting the least recently used session when full.
	Put(ctx context.Context, id string, sel selection.Selection)

	// Delete forgets id.
	Delete(ctx context.Context, id string)

	// Purge drops expired sessions and returns how many were removed.
	Purge(ctx context.Context) int

	Size() int
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like one NewID produced.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

type entry struct {
	id      string
	sel     selection.Selection
	touched time.Time
}

// inMemoryStore keeps sessions in a map plus a recency list; the front of
// the list is the most recently used session.
type inMemoryStore struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryStore creates a session store with configuration options.
func NewInMemoryStore(opts ...Option) Store {
	s := &inMemoryStore{
		maxSize: 10_000,
		ttl:     12 * time.Hour,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.entries = make(map[string]*list.Element)
	s.order = list.New()
	return s
}

func (s *inMemoryStore) Get(_ context.Context, id string) (selection.Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[id]
	if !ok {
		return selection.Selection{}, false
	}
	e := el.Value.(*entry)
	now := s.now()
	if s.expired(e, now) {
		s.remove(el)
		metrics.RecordSessionEvicted()
		metrics.UpdateActiveSessions(len(s.entries))
		return selection.Selection{}, false
	}
	e.touched = now
	s.order.MoveToFront(el)
	return e.sel, true
}

func (s *inMemoryStore) Put(_ context.Context, id string, sel selection.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if el, ok := s.entries[id]; ok {
		e := el.Value.(*entry)
		e.sel = sel
		e.touched = now
		s.order.MoveToFront(el)
		return
	}

	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evictOldest()
	}
	s.entries[id] = s.order.PushFront(&entry{id: id, sel: sel, touched: now})
	metrics.UpdateActiveSessions(len(s.entries))
}

func (s *inMemoryStore) Delete(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[id]; ok {
		s.remove(el)
		metrics.UpdateActiveSessions(len(s.entries))
	}
}

func (s *inMemoryStore) Purge(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ttl <= 0 {
		return 0
	}
	now := s.now()
	removed := 0
	// The back of the list is the least recently used, so stop at the first live entry.
	for el := s.order.Back(); el != nil; {
		e := el.Value.(*entry)
		if !s.expired(e, now) {
			break
		}
		prev := el.Prev()
		s.remove(el)
		metrics.RecordSessionEvicted()
		removed++
		el = prev
	}
	metrics.UpdateActiveSessions(len(s.entries))
	return removed
}

func (s *inMemoryStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Must be called with s.mu held.
func (s *inMemoryStore) expired(e *entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.touched) > s.ttl
}

// Must be called with s.mu held.
func (s *inMemoryStore) remove(el *list.Element) {
	delete(s.entries, el.Value.(*entry).id)
	s.order.Remove(el)
}

// Must be called with s.mu held.
func (s *inMemoryStore) evictOldest() {
	if el := s.order.Back(); el != nil {
		s.remove(el)
		metrics.RecordSessionEvicted()
	}
}
