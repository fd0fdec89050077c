package cache

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/nite-coder/ccipgate/pkg/timecache"
)

// LRU bounds the number of remembered nodes and evicts the least recently used one when full.
type LRU struct {
	ttl   time.Duration
	now   func() time.Time
	items *expirable.LRU[common.Hash, Entry]
}

func NewLRU(size int, ttl time.Duration) *LRU {
	return &LRU{
		ttl:   ttl,
		now:   timecache.Now,
		items: expirable.NewLRU[common.Hash, Entry](size, nil, ttl),
	}
}

func (l *LRU) Get(_ context.Context, node common.Hash) (Entry, bool) {
	entry, found := l.items.Get(node)
	if !found || expired(entry, l.ttl, l.now()) {
		return Entry{}, false
	}
	return entry, true
}

func (l *LRU) Set(_ context.Context, entry Entry) {
	if entry.DiscoveredAt.IsZero() {
		entry.DiscoveredAt = l.now()
	}
	l.items.Add(entry.Node, entry)
}

func (l *LRU) Delete(_ context.Context, node common.Hash) {
	l.items.Remove(node)
}

func (l *LRU) Len() int {
	return l.items.Len()
}
