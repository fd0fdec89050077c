package resolver

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/nite-coder/ccipgate/pkg/log"
	"github.com/redis/go-redis/v9"
)

const DefaultIndexKey = "ccipgate:usernames"

// Index remembers every username the gateway has confirmed. When a redis client is set the
// set is shared with other instances.
type Index struct {
	client redis.UniversalClient
	key    string

	mu    sync.RWMutex
	names []string
}

func NewIndex(client redis.UniversalClient, key string) *Index {
	if key == "" {
		key = DefaultIndexKey
	}
	return &Index{
		client: client,
		key:    key,
	}
}

func (idx *Index) Name() string {
	return TierIndex
}

func (idx *Index) Candidates(ctx context.Context) ([]string, error) {
	if idx.client != nil {
		members, err := idx.client.SMembers(ctx, idx.key).Result()
		if err != nil {
			log.FromContext(ctx).Warn("resolver: load index from redis failed",
				slog.String("key", idx.key),
				slog.String("error", err.Error()),
			)
		} else {
			idx.merge(members)
		}
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return slices.Clone(idx.names), nil
}

func (idx *Index) Record(ctx context.Context, username string) {
	if !idx.merge([]string{username}) || idx.client == nil {
		return
	}

	if err := idx.client.SAdd(ctx, idx.key, username).Err(); err != nil {
		log.FromContext(ctx).Warn("resolver: save index to redis failed",
			slog.String("key", idx.key),
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
	}
}

func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.names)
}

// merge inserts names keeping the slice sorted and reports whether anything was added.
func (idx *Index) merge(names []string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	added := false
	for _, name := range names {
		if ValidateUsername(name) != nil {
			continue
		}
		pos, found := slices.BinarySearch(idx.names, name)
		if found {
			continue
		}
		idx.names = slices.Insert(idx.names, pos, name)
		added = true
	}
	return added
}
