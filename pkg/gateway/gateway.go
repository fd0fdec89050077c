package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/nite-coder/ccipgate/pkg/accesslog"
	"github.com/nite-coder/ccipgate/pkg/cache"
	"github.com/nite-coder/ccipgate/pkg/config"
	"github.com/nite-coder/ccipgate/pkg/connector/redis"
	"github.com/nite-coder/ccipgate/pkg/initialize"
	"github.com/nite-coder/ccipgate/pkg/log"
	"github.com/nite-coder/ccipgate/pkg/middleware"
	"github.com/nite-coder/ccipgate/pkg/middleware/prommetric"
	"github.com/nite-coder/ccipgate/pkg/registry"
	"github.com/nite-coder/ccipgate/pkg/resolver"
	"github.com/nite-coder/ccipgate/pkg/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Gateway owns every long lived component of the process.
type Gateway struct {
	options    config.Options
	dispatcher *Dispatcher
	server     *HTTPServer
	provider   *sdktrace.TracerProvider
	accessLog  *accesslog.Tracer
}

// New wires redis, the cache, the registry client, the resolver tiers, tracing and the
// HTTP server from the main options.
func New(ctx context.Context, mainOptions config.Options) (*Gateway, error) {
	logger := log.FromContext(ctx)

	if err := redis.Initialize(ctx, mainOptions.Redis); err != nil {
		return nil, fmt.Errorf("gateway: redis: %w", err)
	}

	c, err := cache.New(mainOptions.Cache)
	if err != nil {
		return nil, err
	}

	client, err := registry.NewRPCClient(mainOptions.Registry)
	if err != nil {
		return nil, err
	}

	res, err := resolver.Build(ctx, mainOptions, client, c)
	if err != nil {
		return nil, err
	}

	provider, err := tracing.NewProvider(ctx, mainOptions.Tracing)
	if err != nil {
		return nil, fmt.Errorf("gateway: tracing: %w", err)
	}

	if err := initialize.Middleware(); err != nil {
		return nil, err
	}

	chain, err := middleware.Load(mainOptions.Server.Middlewares)
	if err != nil {
		return nil, err
	}

	if mainOptions.Metrics.Prometheus.Enabled {
		registerMetrics(mainOptions.Metrics.Prometheus.Buckets)
		metric := prommetric.New(mainOptions.Metrics.Prometheus.Path)
		chain = append(app.HandlersChain{metric.ServeHTTP}, chain...)
	}

	var accessLog *accesslog.Tracer
	if mainOptions.AccessLog.Enabled {
		accessLog, err = accesslog.NewTracer(mainOptions.AccessLog)
		if err != nil {
			return nil, fmt.Errorf("gateway: access log: %w", err)
		}
	}

	dispatcher := NewDispatcher(mainOptions.Gateway, res, client)
	handler := NewHandler(dispatcher, mainOptions.Server.Debug)

	logger.Info("gateway: ready",
		"root_domain", mainOptions.Gateway.RootDomain,
		"contract", client.Contract().Hex(),
		"endpoints", len(client.Endpoints()),
		"cache", mainOptions.Cache.Type,
	)

	return &Gateway{
		options:    mainOptions,
		dispatcher: dispatcher,
		server:     newHTTPServer(mainOptions.Server, chain, handler, accessLog),
		provider:   provider,
		accessLog:  accessLog,
	}, nil
}

func (g *Gateway) Dispatcher() *Dispatcher {
	return g.dispatcher
}

// Run serves until Shutdown is called.
func (g *Gateway) Run() error {
	return g.server.Run()
}

// Shutdown stops the server and flushes pending spans.
func (g *Gateway) Shutdown(ctx context.Context) error {
	var errs []error

	if err := g.server.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	if g.provider != nil {
		if err := g.provider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if g.accessLog != nil {
		if err := g.accessLog.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := redis.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
