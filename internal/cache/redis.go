package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Redis shares cached results between processes. Backend errors are logged
// and reported as misses, so a redis outage only costs extra storage reads.
type Redis struct {
	client  *redis.Client
	prefix  string
	log     *logrus.Entry
	metrics Recorder
}

func NewRedis(client *redis.Client, prefix string, log *logrus.Entry, metrics Recorder) *Redis {
	return &Redis{client: client, prefix: prefix, log: log, metrics: metrics}
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.log.WithField("operation", "cache.Redis.Get").WithError(err).Warn("cache read failed")
	}
	hit := err == nil
	if c.metrics != nil {
		c.metrics.CacheResult("redis", hit)
	}
	if !hit {
		return nil, false
	}
	return b, true
}

func (c *Redis) Put(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		c.log.WithField("operation", "cache.Redis.Put").WithError(err).Warn("cache write failed")
	}
}
