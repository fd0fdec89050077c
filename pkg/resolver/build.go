package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nite-coder/ccipgate/pkg/cache"
	"github.com/nite-coder/ccipgate/pkg/config"
	"github.com/nite-coder/ccipgate/pkg/connector/redis"
	"github.com/nite-coder/ccipgate/pkg/log"
	"github.com/nite-coder/ccipgate/pkg/registry"
)

// Build assembles the tiers described by the resolver and registry options. The events tier
// is added only when client can also read chain logs.
func Build(ctx context.Context, opts config.Options, client registry.Client, c cache.Cache) (*Resolver, error) {
	sources := []Source{
		NewCuratedSource(opts.Resolver.Curated),
		NewGeneratedSource(opts.Resolver.NumericMax, opts.Resolver.Terms),
	}

	if opts.Resolver.Index.Enabled {
		index := NewIndex(nil, opts.Resolver.Index.Key)
		if opts.Resolver.Index.RedisID != "" {
			redisClient, found := redis.Get(opts.Resolver.Index.RedisID)
			if !found {
				return nil, fmt.Errorf("resolver: redis id '%s' is not initialized", opts.Resolver.Index.RedisID)
			}
			index = NewIndex(redisClient, opts.Resolver.Index.Key)
		}
		sources = append(sources, index)
	}

	if opts.Resolver.Events {
		logSource, ok := client.(registry.LogSource)
		if ok {
			sources = append(sources, NewEventSource(logSource, opts.Registry.FromBlock, opts.Registry.RegisterSignature))
		} else {
			log.FromContext(ctx).Warn("resolver: events tier is disabled, registry client can't read logs")
		}
	}

	names := make([]string, 0, len(sources))
	for _, source := range sources {
		names = append(names, source.Name())
	}
	log.FromContext(ctx).Debug("resolver: tiers are ready", slog.Any("tiers", names))

	return New(Options{
		RootDomain: opts.Gateway.RootDomain,
		TrialDelay: opts.Resolver.TrialDelay,
	}, client, c, sources...), nil
}
