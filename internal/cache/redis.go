package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"storefront-bff/internal/resilience"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

type RateLimit struct {
	Requests int
	Window   time.Duration
}

type Client struct {
	rdb     *redis.Client
	breaker *resilience.CircuitBreaker
	limit   RateLimit
}

// NewClient connects to Redis, retrying the initial ping a few times.
func NewClient(ctx context.Context, addr string, limit RateLimit) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	err := resilience.Retry(ctx, 3, 500*time.Millisecond, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return rdb.Ping(pingCtx).Err()
	})
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &Client{
		rdb:     rdb,
		breaker: resilience.NewCircuitBreaker("redis", 5, 10*time.Second),
		limit:   limit,
	}, nil
}

// run executes action through the breaker. Errors that show up once the
// caller's context is done belong to the caller and do not count against
// Redis.
func (c *Client) run(ctx context.Context, action func() error) error {
	return c.breaker.Execute(func() error {
		err := action()
		if err != nil && ctx.Err() != nil {
			return resilience.Skip(err)
		}
		return err
	})
}

// IsRateLimited counts a request for key in the current window. It fails
// open: when Redis is unreachable no request is limited.
func (c *Client) IsRateLimited(ctx context.Context, key string) bool {
	var count int64
	err := c.run(ctx, func() error {
		pipe := c.rdb.Pipeline()
		incr := pipe.Incr(ctx, "ratelimit:"+key)
		pipe.Expire(ctx, "ratelimit:"+key, c.limit.Window)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		count = incr.Val()
		return nil
	})
	if err != nil {
		slog.Warn("Rate limiter unavailable", "error", err)
		return false
	}

	return count > int64(c.limit.Requests)
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	miss := false
	err := c.run(ctx, func() error {
		b, err := c.rdb.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			miss = true
			return nil
		}
		data = b
		return err
	})
	if err != nil {
		return nil, err
	}
	if miss {
		return nil, ErrMiss
	}
	return data, nil
}

func (c *Client) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.run(ctx, func() error {
		return c.rdb.Set(ctx, key, data, ttl).Err()
	})
}

func (c *Client) Del(ctx context.Context, key string) error {
	return c.run(ctx, func() error {
		return c.rdb.Del(ctx, key).Err()
	})
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
