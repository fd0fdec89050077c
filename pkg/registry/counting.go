package registry

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

const (
	MethodGetAddress = "getAddress"
	MethodGetText    = "getText"
	MethodGetProfile = "getProfile"
)

// CountingClient counts the calls that pass through to the wrapped Client.
type CountingClient struct {
	next Client

	mu     sync.Mutex
	counts map[string]int
}

func NewCountingClient(next Client) *CountingClient {
	return &CountingClient{
		next:   next,
		counts: map[string]int{},
	}
}

func (c *CountingClient) GetAddress(ctx context.Context, username string) (common.Address, error) {
	c.inc(MethodGetAddress)
	return c.next.GetAddress(ctx, username)
}

func (c *CountingClient) GetText(ctx context.Context, username, key string) (string, error) {
	c.inc(MethodGetText)
	return c.next.GetText(ctx, username, key)
}

func (c *CountingClient) GetProfile(ctx context.Context, username string) (Profile, error) {
	c.inc(MethodGetProfile)
	return c.next.GetProfile(ctx, username)
}

func (c *CountingClient) Count(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[method]
}

func (c *CountingClient) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

func (c *CountingClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.counts)
}

func (c *CountingClient) inc(method string) {
	c.mu.Lock()
	c.counts[method]++
	c.mu.Unlock()
}
