// Package cache remembers which username a namehash node belongs to, so that a
// node is brute-forced at most once per TTL.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nite-coder/ccipgate/pkg/config"
	"github.com/nite-coder/ccipgate/pkg/connector/redis"
)

// Entry is a discovered node to username mapping.
type Entry struct {
	Node         common.Hash `json:"node"`
	Username     string      `json:"username"`
	DiscoveredAt time.Time   `json:"discovered_at"`
}

// Cache stores entries keyed by node. Implementations are safe for concurrent use.
// A backend failure is reported as a miss.
type Cache interface {
	Get(ctx context.Context, node common.Hash) (Entry, bool)
	Set(ctx context.Context, entry Entry)
	Delete(ctx context.Context, node common.Hash)
}

// New builds the cache backend selected by options.Type.
func New(options config.CacheOptions) (Cache, error) {
	ttl := options.TTL
	if ttl <= 0 {
		ttl = config.DefaultCacheTTL
	}

	switch options.Type {
	case config.CacheMemory:
		return NewMemory(ttl), nil
	case config.CacheLRU, "":
		size := options.Size
		if size <= 0 {
			size = config.DefaultCacheSize
		}
		return NewLRU(size, ttl), nil
	case config.CacheRedis:
		client, found := redis.Get(options.RedisID)
		if !found {
			return nil, fmt.Errorf("cache: redis id '%s' is not initialized", options.RedisID)
		}
		return NewRedis(client, options.Prefix, ttl), nil
	default:
		return nil, fmt.Errorf("cache: type '%s' is not supported", options.Type)
	}
}

func expired(entry Entry, ttl time.Duration, now time.Time) bool {
	return !entry.DiscoveredAt.IsZero() && now.Sub(entry.DiscoveredAt) >= ttl
}
