package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/nite-coder/ccipgate/pkg/log"
	"github.com/nite-coder/ccipgate/pkg/timecache"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "ccipgate:node:"

// Redis shares discovered entries between gateway instances. Expiry is delegated to redis.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &Redis{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *Redis) key(node common.Hash) string {
	return r.prefix + node.Hex()
}

func (r *Redis) Get(ctx context.Context, node common.Hash) (Entry, bool) {
	val, err := r.client.Get(ctx, r.key(node)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.FromContext(ctx).Warn("cache: redis get failed", slog.String("node", node.Hex()), slog.String("error", err.Error()))
		}
		return Entry{}, false
	}

	var entry Entry
	if err := sonic.Unmarshal(val, &entry); err != nil {
		log.FromContext(ctx).Warn("cache: redis entry is corrupted", slog.String("node", node.Hex()), slog.String("error", err.Error()))
		return Entry{}, false
	}

	return entry, true
}

func (r *Redis) Set(ctx context.Context, entry Entry) {
	if entry.DiscoveredAt.IsZero() {
		entry.DiscoveredAt = timecache.Now()
	}

	val, err := sonic.Marshal(entry)
	if err != nil {
		log.FromContext(ctx).Warn("cache: marshal entry failed", slog.String("error", err.Error()))
		return
	}

	if err := r.client.Set(ctx, r.key(entry.Node), val, r.ttl).Err(); err != nil {
		log.FromContext(ctx).Warn("cache: redis set failed", slog.String("node", entry.Node.Hex()), slog.String("error", err.Error()))
	}
}

func (r *Redis) Delete(ctx context.Context, node common.Hash) {
	if err := r.client.Del(ctx, r.key(node)).Err(); err != nil {
		log.FromContext(ctx).Warn("cache: redis del failed", slog.String("node", node.Hex()), slog.String("error", err.Error()))
	}
}
