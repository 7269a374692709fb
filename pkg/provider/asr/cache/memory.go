package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries bounds a MemoryStore built without [WithMaxEntries].
const DefaultMaxEntries = 1024

// Compile-time assertion that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

type memoryEntry struct {
	value   string
	expires time.Time
}

// MemoryStore is an in-process Store. When full, expired entries are
// dropped first and then the entry closest to expiry.
type MemoryStore struct {
	mu         sync.Mutex
	items      map[string]memoryEntry
	maxEntries int
	now        func() time.Time
}

// MemoryOption is a functional option for [NewMemoryStore].
type MemoryOption func(*MemoryStore)

// WithMaxEntries caps the number of cached transcripts.
func WithMaxEntries(n int) MemoryOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithClock replaces the time source. Intended for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		items:      make(map[string]memoryEntry),
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok {
		return "", ErrMiss
	}
	if !s.now().Before(e.expires) {
		delete(s.items, key)
		return "", ErrMiss
	}
	return e.value, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if _, exists := s.items[key]; !exists && len(s.items) >= s.maxEntries {
		s.evictLocked(now)
	}
	s.items[key] = memoryEntry{value: value, expires: now.Add(ttl)}
	return nil
}

// Ping implements Store. A MemoryStore is always reachable.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Len returns the number of entries, including expired ones not yet evicted.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *MemoryStore) evictLocked(now time.Time) {
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, e := range s.items {
		if !now.Before(e.expires) {
			delete(s.items, k)
			continue
		}
		if oldestKey == "" || e.expires.Before(oldest) {
			oldestKey, oldest = k, e.expires
		}
	}
	if len(s.items) >= s.maxEntries && oldestKey != "" {
		delete(s.items, oldestKey)
	}
}
