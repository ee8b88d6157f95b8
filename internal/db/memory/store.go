// Package memory is an in-process db.Store backed by a bounded LRU.
// It serves single-node runs and tests where no Redis/Valkey is available.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kailas-cloud/reteval/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type entry struct {
	value     []byte
	expiresAt time.Time // zero = no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store keeps at most capacity keys; the least recently used key is evicted first.
type Store struct {
	mu    sync.Mutex
	cache *lru.Cache[string, entry]
	now   func() time.Time
}

// NewStore creates an LRU-backed store.
func NewStore(capacity int) (*Store, error) {
	c, err := lru.New[string, entry](capacity)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Store{cache: c, now: time.Now}, nil
}

// WithClock overrides the time source used for TTL checks.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close drops all keys.
func (s *Store) Close() {
	s.cache.Purge()
}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.lookup(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

// MGet returns values index-aligned with keys; missing keys yield nil.
func (s *Store) MGet(_ context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([][]byte, len(keys))
	for i, k := range keys {
		if v, ok := s.lookup(k); ok {
			out[i] = v
		}
	}
	return out, nil
}

// Set stores a value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores a value with an expiration. A non-positive ttl stores without expiry.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.cache.Add(key, e)
	s.mu.Unlock()
	return nil
}

// Del deletes a key.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	s.cache.Remove(key)
	s.mu.Unlock()
	return nil
}

// Scan returns live keys matching a Redis-style glob pattern.
func (s *Store) Scan(_ context.Context, pattern string) ([]string, error) {
	toks, err := compileGlob(pattern)
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var keys []string
	for _, k := range s.cache.Keys() {
		e, ok := s.cache.Peek(k)
		if !ok || e.expired(now) {
			continue
		}
		if matchTokens(toks, k) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// lookup returns a copy of a live value, dropping it if expired. Callers hold mu.
func (s *Store) lookup(key string) ([]byte, bool) {
	e, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	if e.expired(s.now()) {
		s.cache.Remove(key)
		return nil, false
	}
	return append([]byte(nil), e.value...), true
}
