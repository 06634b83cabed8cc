package cache

import (
	"context"
	"time"
)

// Cache is the key/value and rate limiting surface shared by the Redis
// client and the in-memory fallback.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	IsRateLimited(ctx context.Context, key string) bool
	Close() error
}

var (
	_ Cache = (*Client)(nil)
	_ Cache = (*Memory)(nil)
)
