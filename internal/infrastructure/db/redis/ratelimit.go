package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const counterPrefix = "ratelimit:"

// CounterStore implements fixed-window rate-limit counters on Redis, so the
// limits hold across every instance of the service.
// Key format: ratelimit:<route_class>:<user_id|ip>
type CounterStore struct {
	client *redis.Client
}

// NewCounterStore creates a CounterStore wrapping the given Redis client.
func NewCounterStore(client *redis.Client) *CounterStore {
	return &CounterStore{client: client}
}

// Incr atomically bumps the counter for key inside a MULTI/EXEC pipeline.
// The expiry is set only on the increment that opens the window, and the
// returned duration is the time left until the window resets.
func (s *CounterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	k := counterPrefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, window)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("ratelimit incr: %w", err)
	}

	remaining := ttl.Val()
	if remaining < 0 {
		remaining = window
	}
	return incr.Val(), remaining, nil
}
