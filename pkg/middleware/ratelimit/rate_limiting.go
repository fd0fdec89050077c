package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/nite-coder/ccipgate/pkg/connector/redis"
	"github.com/nite-coder/ccipgate/pkg/middleware"
	"github.com/nite-coder/ccipgate/pkg/variable"
)

type Limiter interface {
	Allow(ctx context.Context, key string) AllowResult
}

type AllowResult struct {
	Allow     bool
	Limit     uint64
	Remaining uint64
	ResetTime time.Time
}

type StrategyMode string

const (
	Local StrategyMode = "local"
	Redis StrategyMode = "redis"
)

const (
	defaultHeaderLimit     = "X-RateLimit-Limit"
	defaultHeaderRemaining = "X-RateLimit-Remaining"
	defaultHeaderReset     = "X-RateLimit-Reset"
	defaultRejectedBody    = `{"error":"rate_limited","details":"too many requests"}`
)

type Options struct {
	Strategy                 StrategyMode  `mapstructure:"strategy"`
	Limit                    uint64        `mapstructure:"limit"`
	LimitBy                  string        `mapstructure:"limit_by"`
	WindowSize               time.Duration `mapstructure:"window_size"`
	HeaderLimit              string        `mapstructure:"header_limit"`
	HeaderRemaining          string        `mapstructure:"header_remaining"`
	HeaderReset              string        `mapstructure:"header_reset"`
	RejectedHTTPStatusCode   int           `mapstructure:"rejected_http_status_code"`
	RejectedHTTPContentType  string        `mapstructure:"rejected_http_content_type"`
	RejectedHTTPResponseBody string        `mapstructure:"rejected_http_response_body"`
	RedisID                  string        `mapstructure:"redis_id"`
}

type RateLimitingMiddleware struct {
	options    *Options
	limiter    Limiter
	directives []string
}

func NewMiddleware(options Options) (*RateLimitingMiddleware, error) {
	if len(options.LimitBy) == 0 {
		return nil, errors.New("limit_by can't be empty")
	}

	if options.Limit == 0 {
		return nil, errors.New("limit must be greater than 0")
	}

	if options.WindowSize < time.Second {
		return nil, errors.New("window_size must be at least 1s")
	}

	if options.RejectedHTTPStatusCode == 0 {
		options.RejectedHTTPStatusCode = 429
	}

	if options.RejectedHTTPContentType == "" {
		options.RejectedHTTPContentType = "application/json"
	}

	if options.RejectedHTTPResponseBody == "" {
		options.RejectedHTTPResponseBody = defaultRejectedBody
	}

	if options.HeaderLimit == "" {
		options.HeaderLimit = defaultHeaderLimit
	}

	if options.HeaderRemaining == "" {
		options.HeaderRemaining = defaultHeaderRemaining
	}

	if options.HeaderReset == "" {
		options.HeaderReset = defaultHeaderReset
	}

	m := &RateLimitingMiddleware{
		options:    &options,
		directives: variable.ParseDirectives(options.LimitBy),
	}

	switch options.Strategy {
	case Local, "":
		m.limiter = NewLocalLimiter(options)
	case Redis:
		client, found := redis.Get(options.RedisID)
		if !found {
			return nil, fmt.Errorf("redis id '%s' not found for rate_limit middleware", options.RedisID)
		}
		m.limiter = NewRedisLimiter(client, options)
	default:
		return nil, fmt.Errorf("strategy '%s' is invalid for rate_limit middleware", options.Strategy)
	}

	return m, nil
}

func (m *RateLimitingMiddleware) ServeHTTP(ctx context.Context, c *app.RequestContext) {
	if variable.GetBool(variable.Allow, c) {
		c.Next(ctx)
		return
	}

	key := m.key(c)
	if len(key) == 0 {
		c.Next(ctx)
		return
	}

	result := m.limiter.Allow(ctx, key)

	c.Response.Header.Set(m.options.HeaderLimit, strconv.FormatUint(result.Limit, 10))
	c.Response.Header.Set(m.options.HeaderRemaining, strconv.FormatUint(result.Remaining, 10))
	c.Response.Header.Set(m.options.HeaderReset, strconv.FormatInt(result.ResetTime.Unix(), 10))

	if !result.Allow {
		c.SetStatusCode(m.options.RejectedHTTPStatusCode)
		c.Response.Header.SetContentType(m.options.RejectedHTTPContentType)
		c.Response.SetBodyString(m.options.RejectedHTTPResponseBody)
		c.Abort()
		return
	}

	c.Next(ctx)
}

// key expands the limit_by template. A template whose directives all resolve empty
// yields an empty key, and the request is not limited.
func (m *RateLimitingMiddleware) key(c *app.RequestContext) string {
	if len(m.directives) == 0 {
		return m.options.LimitBy
	}

	replacements := make([]string, 0, len(m.directives)*2)
	empty := true
	for _, directive := range m.directives {
		val := variable.GetString(directive, c)
		if val != "" {
			empty = false
		}
		replacements = append(replacements, directive, val)
	}

	if empty {
		return ""
	}

	return "ccipgate:ratelimit:" + strings.NewReplacer(replacements...).Replace(m.options.LimitBy)
}

func Init() error {
	return middleware.RegisterTyped([]string{"rate_limit"}, func(options Options) (app.HandlerFunc, error) {
		m, err := NewMiddleware(options)
		if err != nil {
			return nil, err
		}
		return m.ServeHTTP, nil
	})
}
