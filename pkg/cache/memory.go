package cache

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nite-coder/blackbear/pkg/cache/v2"
	"github.com/nite-coder/ccipgate/pkg/timecache"
)

// Memory is an unbounded in-process TTL cache.
type Memory struct {
	ttl   time.Duration
	now   func() time.Time
	items *cache.Cache[common.Hash, *Entry]
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:   ttl,
		now:   timecache.Now,
		items: cache.NewCache[common.Hash, *Entry](ttl),
	}
}

func (m *Memory) Get(_ context.Context, node common.Hash) (Entry, bool) {
	entry, found := m.items.Get(node)
	if !found || entry == nil {
		return Entry{}, false
	}
	if expired(*entry, m.ttl, m.now()) {
		return Entry{}, false
	}
	return *entry, true
}

func (m *Memory) Set(_ context.Context, entry Entry) {
	if entry.DiscoveredAt.IsZero() {
		entry.DiscoveredAt = m.now()
	}
	m.items.PutWithTTL(entry.Node, &entry, m.ttl)
}

// Delete leaves a nil marker that expires with the normal TTL.
func (m *Memory) Delete(_ context.Context, node common.Hash) {
	m.items.PutWithTTL(node, nil, m.ttl)
}
