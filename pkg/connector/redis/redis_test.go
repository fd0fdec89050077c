package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/nite-coder/ccipgate/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name    string
		options []config.RedisOptions
		wantErr bool
	}{
		{
			name:    "empty options",
			options: []config.RedisOptions{},
		},
		{
			name:    "empty addrs",
			options: []config.RedisOptions{{ID: "test"}},
			wantErr: true,
		},
		{
			name:    "empty id",
			options: []config.RedisOptions{{Addrs: []string{"localhost:6379"}}},
			wantErr: true,
		},
		{
			name:    "blank addr",
			options: []config.RedisOptions{{ID: "test", Addrs: []string{"", "localhost:6379"}}},
			wantErr: true,
		},
		{
			name:    "unreachable",
			options: []config.RedisOptions{{ID: "test", Addrs: []string{"127.0.0.1:1"}}},
			wantErr: true,
		},
		{
			name:    "skip ping",
			options: []config.RedisOptions{{ID: "test", Addrs: []string{"127.0.0.1:1"}, SkipPing: true}},
		},
		{
			name:    "cluster skip ping",
			options: []config.RedisOptions{{ID: "test", Addrs: []string{"127.0.0.1:1", "127.0.0.1:2"}, SkipPing: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Initialize(context.Background(), tt.options)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	require.NoError(t, Close())
}

func TestGet(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	err := Initialize(ctx, []config.RedisOptions{{ID: "main", Addrs: []string{mr.Addr()}}})
	require.NoError(t, err)
	defer Close()

	client, ok := Get("main")
	require.True(t, ok)
	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	_, ok = Get("other")
	assert.False(t, ok)
}
