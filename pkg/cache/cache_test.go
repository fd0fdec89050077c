package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/nite-coder/ccipgate/pkg/config"
	connector "github.com/nite-coder/ccipgate/pkg/connector/redis"
	"github.com/nite-coder/ccipgate/pkg/namehash"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func testEntry(username string, at time.Time) Entry {
	return Entry{
		Node:         namehash.Of(username, "contx.eth"),
		Username:     username,
		DiscoveredAt: at,
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	c := NewMemory(5 * time.Minute)
	c.now = clock.Now

	alice := testEntry("alice", clock.Now())
	c.Set(ctx, alice)

	got, found := c.Get(ctx, alice.Node)
	require.True(t, found)
	assert.Equal(t, "alice", got.Username)

	_, found = c.Get(ctx, namehash.Of("bob", "contx.eth"))
	assert.False(t, found)

	clock.t = clock.t.Add(4 * time.Minute)
	_, found = c.Get(ctx, alice.Node)
	assert.True(t, found)

	clock.t = clock.t.Add(time.Minute)
	_, found = c.Get(ctx, alice.Node)
	assert.False(t, found, "entry must expire after ttl")

	c.Set(ctx, testEntry("alice", clock.Now()))
	c.Delete(ctx, alice.Node)
	_, found = c.Get(ctx, alice.Node)
	assert.False(t, found)
}

func TestMemoryStampsDiscoveredAt(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	c := NewMemory(time.Minute)
	c.now = clock.Now
	c.Set(ctx, Entry{Node: common.HexToHash("0x01"), Username: "x"})

	got, found := c.Get(ctx, common.HexToHash("0x01"))
	require.True(t, found)
	assert.True(t, got.DiscoveredAt.Equal(clock.t))
}

func TestLRU(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}

	c := NewLRU(2, 5*time.Minute)
	c.now = clock.Now

	alice := testEntry("alice", clock.Now())
	bob := testEntry("bob", clock.Now())
	carol := testEntry("carol", clock.Now())

	c.Set(ctx, alice)
	c.Set(ctx, bob)
	_, found := c.Get(ctx, alice.Node)
	require.True(t, found)

	c.Set(ctx, carol)
	assert.Equal(t, 2, c.Len())

	_, found = c.Get(ctx, bob.Node)
	assert.False(t, found, "least recently used entry is evicted")
	_, found = c.Get(ctx, alice.Node)
	assert.True(t, found)

	clock.t = clock.t.Add(5 * time.Minute)
	_, found = c.Get(ctx, carol.Node)
	assert.False(t, found)

	c.Delete(ctx, alice.Node)
	assert.Equal(t, 1, c.Len())
}

func TestRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewRedis(client, "", 5*time.Minute)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	alice := testEntry("alice", at)
	c.Set(ctx, alice)

	assert.True(t, mr.Exists(defaultRedisPrefix+alice.Node.Hex()))

	got, found := c.Get(ctx, alice.Node)
	require.True(t, found)
	assert.Equal(t, alice.Node, got.Node)
	assert.Equal(t, "alice", got.Username)
	assert.True(t, got.DiscoveredAt.Equal(at))

	mr.FastForward(5 * time.Minute)
	_, found = c.Get(ctx, alice.Node)
	assert.False(t, found)

	c.Set(ctx, alice)
	c.Delete(ctx, alice.Node)
	_, found = c.Get(ctx, alice.Node)
	assert.False(t, found)

	require.NoError(t, mr.Set(defaultRedisPrefix+alice.Node.Hex(), "{not json"))
	_, found = c.Get(ctx, alice.Node)
	assert.False(t, found)

	mr.Close()
	_, found = c.Get(ctx, alice.Node)
	assert.False(t, found, "backend failure is a miss")
}

func TestNew(t *testing.T) {
	c, err := New(config.CacheOptions{Type: config.CacheMemory, TTL: time.Minute})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)

	c, err = New(config.CacheOptions{})
	require.NoError(t, err)
	assert.IsType(t, &LRU{}, c)

	_, err = New(config.CacheOptions{Type: config.CacheRedis, RedisID: "missing"})
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	err = connector.Initialize(context.Background(), []config.RedisOptions{{ID: "cache", Addrs: []string{mr.Addr()}}})
	require.NoError(t, err)
	defer connector.Close()

	c, err = New(config.CacheOptions{Type: config.CacheRedis, RedisID: "cache", Prefix: "test:"})
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, c)

	_, err = New(config.CacheOptions{Type: "disk"})
	assert.Error(t, err)
}
