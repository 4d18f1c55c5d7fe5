package ports

import (
	"context"
	"time"
)

// Cache is a key -> bytes store with per-entry TTL. Expired entries are misses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
