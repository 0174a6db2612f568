package cache

import (
	"context"
	"errors"
	"time"
)

// LayeredCache reads memory first, then the remote tier, backfilling memory on remote hits.
type LayeredCache struct {
	memory *MemoryCache
	remote Store
	ttl    time.Duration
	onHit  func(layer string)
	onErr  func(op string, err error)
}

// NewLayeredCache creates a cache whose entries live for ttl.
func NewLayeredCache(size int, ttl time.Duration, opts ...LayeredOption) *LayeredCache {
	l := &LayeredCache{
		memory: NewMemoryCache(size, ttl),
		ttl:    ttl,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Get reports whether key was found in any tier.
func (l *LayeredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if v, err := l.memory.Get(ctx, key); err == nil {
		l.hit(LayerMemory)
		return v, true
	}
	if l.remote == nil {
		return nil, false
	}

	v, err := l.remote.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			l.fail("get", err)
		}
		return nil, false
	}
	_ = l.memory.Set(ctx, key, v, l.ttl)
	l.hit(LayerRedis)
	return v, true
}

// Set writes to every tier. Remote failures are reported through the error hook.
func (l *LayeredCache) Set(ctx context.Context, key string, value []byte) {
	_ = l.memory.Set(ctx, key, value, l.ttl)
	if l.remote == nil {
		return
	}
	if err := l.remote.Set(ctx, key, value, l.ttl); err != nil {
		l.fail("set", err)
	}
}

func (l *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = l.memory.Delete(ctx, keys...)
	if l.remote == nil {
		return nil
	}
	return l.remote.Delete(ctx, keys...)
}

func (l *LayeredCache) hit(layer string) {
	if l.onHit != nil {
		l.onHit(layer)
	}
}

func (l *LayeredCache) fail(op string, err error) {
	if l.onErr != nil {
		l.onErr(op, err)
	}
}
