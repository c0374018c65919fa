package rate

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter guarda los contadores en un go-cache local. Sirve para un
// solo proceso; con varias réplicas usar RedisLimiter.
type MemoryLimiter struct {
	c      *gocache.Cache
	Max    int64
	Window time.Duration

	now func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		c:      gocache.New(window, 2*window),
		Max:    int64(max),
		Window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	winStart, left := windowFor(l.now(), l.Window)
	k := fmt.Sprintf("%s:%d", normalizeKey(key), winStart.Unix())

	hits, err := l.incr(k, left)
	if err != nil {
		return Result{}, err
	}
	return resultFor(hits, l.Max, left), nil
}

// incr suma 1 al contador, creándolo con TTL = resto de la ventana.
func (l *MemoryLimiter) incr(k string, ttl time.Duration) (int64, error) {
	for i := 0; i < 3; i++ {
		if err := l.c.Add(k, int64(1), ttl); err == nil {
			return 1, nil
		}
		if n, err := l.c.IncrementInt64(k, 1); err == nil {
			return n, nil
		}
		// expiró entre Add e Increment: reintentar
	}
	return 0, fmt.Errorf("rate: memory counter %q contended", k)
}
