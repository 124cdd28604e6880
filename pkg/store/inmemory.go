package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

type memEntry struct {
	data      []byte
	list      []string
	isList    bool
	expiresAt time.Time
}

func (e *memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// InMemoryStore is a thread-safe, in-process Store. It keeps the same
// single-command atomicity as Redis by serialising every command on one lock.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string]*memEntry
	now  func() time.Time
}

// InMemoryOption configures an InMemoryStore.
type InMemoryOption func(*InMemoryStore)

// WithClock replaces the wall clock used for TTL expiry.
func WithClock(now func() time.Time) InMemoryOption {
	return func(s *InMemoryStore) {
		s.now = now
	}
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore(opts ...InMemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		data: make(map[string]*memEntry),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lookup returns the live entry at key. Must be called with the lock held.
func (s *InMemoryStore) lookup(key string) (*memEntry, bool) {
	e, ok := s.data[key]
	if !ok || e.expired(s.now()) {
		return nil, false
	}
	return e, true
}

// Set writes value under key with no expiry.
func (s *InMemoryStore) Set(_ context.Context, key string, value any) error {
	return s.set(key, value, 0)
}

// SetWithTTL writes value under key, expiring ttl after the write.
func (s *InMemoryStore) SetWithTTL(_ context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("set %s: %w", key, ErrInvalidTTL)
	}
	return s.set(key, value, ttl)
}

func (s *InMemoryStore) set(key string, value any, ttl time.Duration) error {
	data, err := encodeValue(value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	e := &memEntry{data: data}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.data[key] = e
	return nil
}

// Get returns a copy of the bytes at key.
func (s *InMemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.lookup(key)
	if !ok {
		return nil, false, nil
	}
	if e.isList {
		return nil, false, fmt.Errorf("get %s: %w", key, ErrWrongType)
	}
	return append([]byte(nil), e.data...), true, nil
}

// Incr increments the integer at key, keeping any existing expiry.
func (s *InMemoryStore) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		e = &memEntry{data: []byte("0")}
	}
	if e.isList {
		return 0, fmt.Errorf("incr %s: %w", key, ErrWrongType)
	}
	n, err := strconv.ParseInt(string(e.data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, ErrNotInteger)
	}
	n++
	e.data = strconv.AppendInt(nil, n, 10)
	s.data[key] = e
	return n, nil
}

// ListAppend appends value to the list at key.
func (s *InMemoryStore) ListAppend(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		e = &memEntry{isList: true}
		s.data[key] = e
	}
	if !e.isList {
		return fmt.Errorf("rpush %s: %w", key, ErrWrongType)
	}
	e.list = append(e.list, value)
	return nil
}

// ListRange returns a copy of the list at key.
func (s *InMemoryStore) ListRange(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.lookup(key)
	if !ok {
		return []string{}, nil
	}
	if !e.isList {
		return nil, fmt.Errorf("lrange %s: %w", key, ErrWrongType)
	}
	return append([]string(nil), e.list...), nil
}

// Exists reports whether key is present and not expired.
func (s *InMemoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.lookup(key)
	return ok, nil
}

// FlushAll drops every key.
func (s *InMemoryStore) FlushAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]*memEntry)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
