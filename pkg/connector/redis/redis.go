package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nite-coder/ccipgate/pkg/config"
	"github.com/redis/go-redis/v9"
)

var (
	mu      sync.RWMutex
	clients = map[string]redis.UniversalClient{}
)

// Get returns the client registered under id by Initialize.
func Get(id string) (redis.UniversalClient, bool) {
	mu.RLock()
	defer mu.RUnlock()

	client, ok := clients[id]
	return client, ok
}

// Initialize connects every configured redis. A single address yields a plain client, several a cluster client.
func Initialize(ctx context.Context, options []config.RedisOptions) error {
	mu.Lock()
	defer mu.Unlock()

	for _, option := range options {
		client, err := connect(ctx, option)
		if err != nil {
			return err
		}

		if old, ok := clients[option.ID]; ok {
			_ = old.Close()
		}
		clients[option.ID] = client
	}

	return nil
}

// Close disconnects and forgets every client.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	var errs []error
	for id, client := range clients {
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis %s: %w", id, err))
		}
		delete(clients, id)
	}
	return errors.Join(errs...)
}

func connect(ctx context.Context, option config.RedisOptions) (redis.UniversalClient, error) {
	if option.ID == "" {
		return nil, errors.New("redis: id can't be empty")
	}
	if len(option.Addrs) == 0 {
		return nil, fmt.Errorf("redis %s: addrs can't be empty", option.ID)
	}

	addrs := make([]string, 0, len(option.Addrs))
	for _, addr := range option.Addrs {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			return nil, fmt.Errorf("redis %s: addr can't be empty", option.ID)
		}
		addrs = append(addrs, addr)
	}

	var client redis.UniversalClient
	if len(addrs) == 1 {
		client = redis.NewClient(&redis.Options{
			Addr:     addrs[0],
			Username: option.Username,
			Password: option.Password,
			DB:       option.DB,
		})
	} else {
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    addrs,
			Username: option.Username,
			Password: option.Password,
		})
	}

	if !option.SkipPing {
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis %s: ping failed: %w", option.ID, err)
		}
	}

	return client, nil
}
