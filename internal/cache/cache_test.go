package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type countingRecorder struct {
	mu           sync.Mutex
	hits, misses int
}

func (r *countingRecorder) CacheResult(_ string, hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func TestMemoryExpiresLazily(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	rec := &countingRecorder{}
	c := NewMemory(0, WithClock(clock.Now), WithMetrics(rec))

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	c.Put(ctx, "k", []byte("v1"), time.Minute)
	clock.Advance(59 * time.Second)
	v, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), v)

	clock.Advance(time.Second)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok, "entry must be stale exactly at expiry")
	assert.Equal(t, 1, c.Len(), "expiry is lazy")

	c.Put(ctx, "k", []byte("v2"), time.Minute)
	v, ok = c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), v)

	assert.Equal(t, 2, rec.hits)
	assert.Equal(t, 2, rec.misses)
}

func TestMemoryBound(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemory(3, WithClock(clock.Now))

	c.Put(ctx, "a", []byte("a"), 10*time.Second)
	c.Put(ctx, "b", []byte("b"), time.Minute)
	c.Put(ctx, "c", []byte("c"), time.Minute)

	// full, nothing expired: the entry closest to expiry goes
	c.Put(ctx, "d", []byte("d"), time.Minute)
	assert.Equal(t, 3, c.Len())
	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)

	// overwriting an existing key never evicts
	c.Put(ctx, "b", []byte("b2"), time.Minute)
	assert.Equal(t, 3, c.Len())

	clock.Advance(2 * time.Minute)
	c.Put(ctx, "e", []byte("e"), time.Minute)
	assert.Equal(t, 1, c.Len(), "expired entries are swept before eviction")
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(50)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("k%d", (i*j)%80)
				c.Put(ctx, key, []byte(key), time.Minute)
				c.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 50)
}

func TestRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger, _ := test.NewNullLogger()
	rec := &countingRecorder{}
	c := NewRedis(client, "bb:", logrus.NewEntry(logger), rec)

	_, ok := c.Get(ctx, "tasks:x")
	assert.False(t, ok)

	c.Put(ctx, "tasks:x", []byte(`{"total":1}`), time.Minute)
	assert.True(t, mr.Exists("bb:tasks:x"))

	v, ok := c.Get(ctx, "tasks:x")
	require.True(t, ok)
	assert.JSONEq(t, `{"total":1}`, string(v))

	mr.FastForward(61 * time.Second)
	_, ok = c.Get(ctx, "tasks:x")
	assert.False(t, ok)

	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, 2, rec.misses)
}

func TestRedisOutageIsAMiss(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	logger, hook := test.NewNullLogger()
	c := NewRedis(client, "", logrus.NewEntry(logger), nil)
	mr.Close()

	c.Put(ctx, "k", []byte("v"), time.Minute)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.NotEmpty(t, hook.AllEntries())
}
