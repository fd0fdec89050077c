// Package resolver recovers the username behind a namehash node by guessing candidates,
// comparing their namehash and confirming the match against the registry.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nite-coder/ccipgate/pkg/cache"
	"github.com/nite-coder/ccipgate/pkg/log"
	"github.com/nite-coder/ccipgate/pkg/namehash"
	"github.com/nite-coder/ccipgate/pkg/registry"
	"github.com/nite-coder/ccipgate/pkg/timecache"
)

var (
	ErrNotFound = errors.New("resolver: username not found")
)

// Source produces candidate usernames for one search tier.
type Source interface {
	Name() string
	Candidates(ctx context.Context) ([]string, error)
}

// Recorder is implemented by sources that learn from confirmed resolutions.
type Recorder interface {
	Record(ctx context.Context, username string)
}

type Options struct {
	RootDomain string
	// TrialDelay is the pause between two tiers.
	TrialDelay time.Duration
}

type Resolver struct {
	options  Options
	rootNode common.Hash
	registry registry.Client
	cache    cache.Cache
	sources  []Source
}

func New(options Options, client registry.Client, c cache.Cache, sources ...Source) *Resolver {
	return &Resolver{
		options:  options,
		rootNode: namehash.Sum(options.RootDomain),
		registry: client,
		cache:    c,
		sources:  sources,
	}
}

func (r *Resolver) Sources() []Source {
	return r.sources
}

// Resolve returns the username whose node under the root domain equals node.
// A registry failure while confirming a match is returned as is; ErrNotFound is only
// returned once every tier is exhausted.
func (r *Resolver) Resolve(ctx context.Context, node common.Hash) (string, error) {
	logger := log.FromContext(ctx)

	if entry, found := r.cache.Get(ctx, node); found {
		lookups.WithLabelValues("cache", resultHit).Inc()
		return entry.Username, nil
	}
	lookups.WithLabelValues("cache", resultMiss).Inc()

	for i, source := range r.sources {
		if i > 0 {
			if err := r.pause(ctx); err != nil {
				return "", fmt.Errorf("resolver: %w", err)
			}
		}

		candidates, err := source.Candidates(ctx)
		if err != nil {
			lookups.WithLabelValues(source.Name(), resultError).Inc()
			logger.Debug("resolver: tier skipped",
				slog.String("tier", source.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}

		username, err := r.match(ctx, node, candidates)
		if err != nil {
			lookups.WithLabelValues(source.Name(), resultError).Inc()
			return "", fmt.Errorf("resolver: tier %s: %w", source.Name(), err)
		}

		if username == "" {
			lookups.WithLabelValues(source.Name(), resultMiss).Inc()
			continue
		}

		lookups.WithLabelValues(source.Name(), resultHit).Inc()
		r.remember(ctx, node, username)

		logger.Debug("resolver: username discovered",
			slog.String("node", node.Hex()),
			slog.String("username", username),
			slog.String("tier", source.Name()),
		)
		return username, nil
	}

	logger.Debug("resolver: no candidate matched", slog.String("node", node.Hex()))
	return "", fmt.Errorf("%w: %s", ErrNotFound, node.Hex())
}

// match returns the first candidate whose node equals node and which the registry confirms.
// It returns "" when nothing matches.
func (r *Resolver) match(ctx context.Context, node common.Hash, candidates []string) (string, error) {
	for _, candidate := range candidates {
		if r.nodeOf(candidate) != node {
			continue
		}

		profile, err := r.registry.GetProfile(ctx, candidate)
		if err != nil {
			return "", err
		}

		if !profile.Exists {
			log.FromContext(ctx).Debug("resolver: hash matched an unregistered candidate",
				slog.String("node", node.Hex()),
				slog.String("candidate", candidate),
			)
			continue
		}

		return candidate, nil
	}

	return "", nil
}

// nodeOf hashes a single label candidate under the precomputed root node.
func (r *Resolver) nodeOf(candidate string) common.Hash {
	return namehash.Child(r.rootNode, candidate)
}

func (r *Resolver) remember(ctx context.Context, node common.Hash, username string) {
	r.cache.Set(ctx, cache.Entry{
		Node:         node,
		Username:     username,
		DiscoveredAt: timecache.Now(),
	})

	for _, source := range r.sources {
		if recorder, ok := source.(Recorder); ok {
			recorder.Record(ctx, username)
		}
	}
}

func (r *Resolver) pause(ctx context.Context) error {
	if r.options.TrialDelay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(r.options.TrialDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
