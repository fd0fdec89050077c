package ratelimit

import (
	"context"
	"time"

	"github.com/nite-coder/blackbear/pkg/cast"
	"github.com/nite-coder/ccipgate/pkg/log"
	"github.com/nite-coder/ccipgate/pkg/timecache"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RedisLimiter shares a fixed window between gateway instances.
type RedisLimiter struct {
	options *Options
	client  redis.UniversalClient
}

func NewRedisLimiter(client redis.UniversalClient, options Options) *RedisLimiter {
	return &RedisLimiter{
		client:  client,
		options: &options,
	}
}

var script = redis.NewScript(`
local key = KEYS[1]
local tokens = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local window = tonumber(ARGV[3])
local now = tonumber(ARGV[4])

local current = redis.call("INCRBY", key, tokens)
local ttl = redis.call("TTL", key)

if ttl == -1 then
    redis.call("EXPIRE", key, window)
    ttl = window
end

local remaining = limit - current
if remaining < 0 then
    remaining = 0
end

return {current, limit, remaining, now + ttl * 1000}
`)

// Allow fails open: a redis error lets the request through.
func (l *RedisLimiter) Allow(ctx context.Context, key string) AllowResult {
	now := timecache.Now()

	ctx, span := otel.Tracer("ccipgate").Start(ctx, "ratelimit_redis", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	values, err := script.Run(ctx, l.client, []string{key}, 1, l.options.Limit, int(l.options.WindowSize.Seconds()), now.UnixMilli()).Int64Slice()
	if err != nil || len(values) != 4 {
		if err != nil {
			span.SetStatus(otelcodes.Error, err.Error())
		}
		log.FromContext(ctx).Error("ratelimit: redis eval error", "error", err, "key", key)
		return AllowResult{
			Allow:     true,
			Limit:     l.options.Limit,
			Remaining: l.options.Limit,
			ResetTime: now.Add(l.options.WindowSize),
		}
	}
	span.SetStatus(otelcodes.Ok, "")

	current, _ := cast.ToUint64(values[0])
	remaining, _ := cast.ToUint64(values[2])

	return AllowResult{
		Allow:     current <= l.options.Limit,
		Limit:     l.options.Limit,
		Remaining: remaining,
		ResetTime: time.UnixMilli(values[3]),
	}
}
