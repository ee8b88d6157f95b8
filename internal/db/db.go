package db

import (
	"context"
	"time"
)

// Store is the database facade used for reports and the embedding cache.
type Store interface {
	Pinger
	KVStore
	Scanner
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// MGet returns values index-aligned with keys; missing keys yield nil.
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Scanner iterates keys by glob pattern.
type Scanner interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
}
