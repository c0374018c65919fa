package rate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	rdb "github.com/redis/go-redis/v9"
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

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 10, 0, time.UTC)}
}

func newRedis(t *testing.T) *rdb.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return client
}

func limiters(t *testing.T, max int, window time.Duration, clk *fakeClock) map[string]Limiter {
	mem := NewMemoryLimiter(max, window)
	mem.now = clk.Now
	red := NewRedisLimiter(newRedis(t), "", max, window)
	red.now = clk.Now
	return map[string]Limiter{"memory": mem, "redis": red}
}

func TestLimiter_FixedWindow(t *testing.T) {
	t.Parallel()

	for name, l := range limiters(t, 3, time.Minute, newClock()) {
		ctx := context.Background()
		for i := 1; i <= 3; i++ {
			res, err := l.Allow(ctx, "1.2.3.4")
			require.NoError(t, err, name)
			assert.True(t, res.Allowed, "%s hit %d", name, i)
			assert.Equal(t, int64(3-i), res.Remaining, name)
		}

		res, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err, name)
		assert.False(t, res.Allowed, name)
		assert.Equal(t, int64(0), res.Remaining, name)
		assert.Equal(t, int64(4), res.CurrentHits, name)
		// 12:00:10 → la ventana termina a las 12:01:00
		assert.Equal(t, 50*time.Second, res.RetryAfter, name)

		// otra clave no comparte contador
		res, err = l.Allow(ctx, "5.6.7.8")
		require.NoError(t, err, name)
		assert.True(t, res.Allowed, name)
	}
}

func TestLimiter_NewWindowResets(t *testing.T) {
	t.Parallel()

	clk := newClock()
	ls := limiters(t, 1, time.Minute, clk)
	ctx := context.Background()

	for name, l := range ls {
		res, err := l.Allow(ctx, "k")
		require.NoError(t, err)
		require.True(t, res.Allowed, name)
		res, err = l.Allow(ctx, "k")
		require.NoError(t, err)
		require.False(t, res.Allowed, name)
	}

	clk.Advance(time.Minute)
	for name, l := range ls {
		res, err := l.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, res.Allowed, name)
	}
}

func TestRedisLimiter_SetsTTLOnce(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	defer client.Close()

	clk := newClock()
	l := NewRedisLimiter(client, "test:", 10, time.Minute)
	l.now = clk.Now

	_, err = l.Allow(context.Background(), "some ip")
	require.NoError(t, err)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "test:some_ip:")
	assert.Equal(t, time.Minute, mr.TTL(keys[0]))

	mr.FastForward(20 * time.Second)
	_, err = l.Allow(context.Background(), "some ip")
	require.NoError(t, err)
	assert.Equal(t, 40*time.Second, mr.TTL(keys[0]))
}

func TestRedisLimiter_ErrorWhenUnavailable(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	_, err = NewRedisLimiter(client, "", 1, time.Minute).Allow(context.Background(), "x")
	require.Error(t, err)
}

func TestMemoryLimiter_Concurrent(t *testing.T) {
	t.Parallel()

	l := NewMemoryLimiter(50, time.Hour)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.Allow(context.Background(), "same")
			if err == nil && res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}
