package ports

import (
	"context"
	"time"
)

// CounterStore backs the tiered rate limiter with shared fixed-window
// counters. Incr atomically bumps the counter for key, starting a window of
// the given length on first increment, and reports the new count plus the
// time left in the window. Shared storage (Redis) keeps limits meaningful
// across horizontally scaled instances.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, remaining time.Duration, err error)
}
