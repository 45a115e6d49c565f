// Package ratelimit implements fixed-window attempt counters.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/escabi/escabiapi/internal/observability"
	"github.com/escabi/escabiapi/internal/observability/logctx"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// Redis counts attempts with INCR and starts the window on the first hit.
type Redis struct {
	client redis.Cmdable
	limit  int64
	window time.Duration
}

func NewRedis(client redis.Cmdable, limit int, window time.Duration) *Redis {
	return &Redis{client: client, limit: int64(limit), window: window}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, keyPrefix+key)
	pipe.ExpireNX(ctx, keyPrefix+key, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= r.limit, nil
}

type window struct {
	count   int
	resetAt time.Time
}

// Memory is the single-process limiter used when Redis is not configured.
type Memory struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*window
	now     func() time.Time
}

func NewMemory(limit int, win time.Duration) *Memory {
	return &Memory{limit: limit, window: win, buckets: make(map[string]*window), now: time.Now}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.buckets[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(m.window)}
		m.buckets[key] = w
		m.sweep(now)
	}
	w.count++
	return w.count <= m.limit, nil
}

// sweep drops expired windows so the map does not grow without bound.
func (m *Memory) sweep(now time.Time) {
	if len(m.buckets) < 1024 {
		return
	}
	for k, w := range m.buckets {
		if !now.Before(w.resetAt) {
			delete(m.buckets, k)
		}
	}
}

type limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Fallback consults primary and switches to secondary for the call when
// primary errors.
type Fallback struct {
	primary   limiter
	secondary limiter
	log       observability.Logger
}

func NewFallback(primary, secondary limiter, log observability.Logger) *Fallback {
	if log == nil {
		log = observability.NopLogger()
	}
	return &Fallback{primary: primary, secondary: secondary, log: log.With(observability.F("component", "rate_limiter"))}
}

func (f *Fallback) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := f.primary.Allow(ctx, key)
	if err == nil {
		return ok, nil
	}
	logctx.FromOr(ctx, f.log).Warn("rate_limiter_fallback", observability.F("error", err.Error()))
	return f.secondary.Allow(ctx, key)
}
