package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/nite-coder/blackbear/pkg/cache/v2"
	"github.com/nite-coder/ccipgate/pkg/timecache"
)

// LocalLimiter counts requests per key in a fixed window held in process memory.
type LocalLimiter struct {
	options *Options
	cache   *cache.Cache[string, *window]
	mu      sync.Mutex
}

type window struct {
	expiration time.Time
	counter    uint64
}

func NewLocalLimiter(options Options) *LocalLimiter {
	return &LocalLimiter{
		options: &options,
		cache:   cache.NewCache[string, *window](10 * time.Minute),
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) AllowResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := timecache.Now()
	result := AllowResult{
		Limit: l.options.Limit,
	}

	w, found := l.cache.Get(key)
	if !found || !now.Before(w.expiration) {
		w = &window{
			expiration: now.Add(l.options.WindowSize),
			counter:    1,
		}
		l.cache.PutWithTTL(key, w, l.options.WindowSize)

		result.Allow = true
		result.Remaining = l.options.Limit - w.counter
		result.ResetTime = w.expiration
		return result
	}

	result.ResetTime = w.expiration

	if w.counter >= l.options.Limit {
		return result
	}

	w.counter++
	result.Allow = true
	result.Remaining = l.options.Limit - w.counter
	return result
}
