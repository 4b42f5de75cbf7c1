// Package cache memoizes encoded list results for a short TTL.
package cache

import (
	"context"
	"time"
)

// Cache values are opaque encoded bodies. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Recorder counts lookups per backend. *metrics.Metrics implements it.
type Recorder interface {
	CacheResult(cache string, hit bool)
}
