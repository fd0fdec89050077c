package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ValidateConfig checks if the config's values are valid.
func ValidateConfig(mainOpts Options) error {
	if err := validateLogging(mainOpts.Logging); err != nil {
		return err
	}

	if err := validateGateway(mainOpts.Gateway); err != nil {
		return err
	}

	if err := validateRegistry(mainOpts.Registry); err != nil {
		return err
	}

	if err := validateCache(mainOpts.Cache, mainOpts.Redis); err != nil {
		return err
	}

	if err := validateResolver(mainOpts.Resolver, mainOpts.Redis); err != nil {
		return err
	}

	if err := validateTracing(mainOpts.Tracing); err != nil {
		return err
	}

	if err := validateAccessLog(mainOpts.AccessLog); err != nil {
		return err
	}

	return validateRedis(mainOpts.Redis)
}

func validateLogging(opts LoggingOptions) error {
	level := strings.ToLower(opts.Level)
	switch level {
	case "", "debug", "info", "notice", "warn", "error":
	default:
		msg := fmt.Sprintf("logging level '%s' is not supported", level)
		fullpath := []string{"logging", "level"}
		return newInvalidConfig(fullpath, level, msg)
	}

	handler := strings.ToLower(opts.Handler)
	switch handler {
	case "text", "json", "":
	default:
		msg := fmt.Sprintf("logging handler '%s' is not supported", opts.Handler)
		fullpath := []string{"logging", "handler"}
		return newInvalidConfig(fullpath, opts.Handler, msg)
	}

	return nil
}

func validateTracing(opts TracingOptions) error {
	if !opts.Enabled {
		return nil
	}

	if opts.SamplingRate < 0 || opts.SamplingRate > 1 {
		msg := fmt.Sprintf("sampling rate '%v' must be between 0 and 1", opts.SamplingRate)
		fullpath := []string{"tracing", "sampling_rate"}
		return newInvalidConfig(fullpath, opts.SamplingRate, msg)
	}

	for i, p := range opts.Propagators {
		switch strings.TrimSpace(strings.ToLower(p)) {
		case "tracecontext", "baggage", "b3", "jaeger":
		default:
			msg := fmt.Sprintf("propagator '%s' is not supported", p)
			fullpath := []string{"tracing", "propagators", strconv.Itoa(i)}
			return newInvalidConfig(fullpath, p, msg)
		}
	}

	return nil
}

func validateAccessLog(opts AccessLogOptions) error {
	if !opts.Enabled {
		return nil
	}

	if strings.TrimSpace(opts.Template) == "" {
		fullpath := []string{"access_log", "template"}
		return newInvalidConfig(fullpath, opts.Template, "access log template can't be empty")
	}

	switch opts.Escape {
	case "", DefaultEscape, JSONEscape, NoneEscape:
	default:
		msg := fmt.Sprintf("access log escape '%s' is not supported", opts.Escape)
		fullpath := []string{"access_log", "escape"}
		return newInvalidConfig(fullpath, opts.Escape, msg)
	}

	return nil
}

func validateGateway(opts GatewayOptions) error {
	root := opts.RootDomain
	if root == "" || strings.HasPrefix(root, ".") || strings.HasSuffix(root, ".") || strings.Contains(root, "..") {
		msg := fmt.Sprintf("root domain '%s' is invalid", root)
		fullpath := []string{"gateway", "root_domain"}
		return newInvalidConfig(fullpath, root, msg)
	}

	if root != strings.ToLower(root) {
		msg := fmt.Sprintf("root domain '%s' must be lower case", root)
		fullpath := []string{"gateway", "root_domain"}
		return newInvalidConfig(fullpath, root, msg)
	}

	return nil
}

func validateRegistry(opts RegistryOptions) error {
	if !common.IsHexAddress(opts.Contract) {
		msg := fmt.Sprintf("registry contract '%s' is not a hex address", opts.Contract)
		fullpath := []string{"registry", "contract"}
		return newInvalidConfig(fullpath, opts.Contract, msg)
	}

	if len(opts.Endpoints) == 0 {
		fullpath := []string{"registry", "endpoints"}
		return newInvalidConfig(fullpath, opts.Endpoints, "at least one registry endpoint is required")
	}

	for i, endpoint := range opts.Endpoints {
		u, err := url.Parse(strings.TrimSpace(endpoint))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			msg := fmt.Sprintf("registry endpoint '%s' is not a http(s) url", endpoint)
			fullpath := []string{"registry", "endpoints", fmt.Sprint(i)}
			return newInvalidConfig(fullpath, endpoint, msg)
		}
	}

	return nil
}

func validateCache(opts CacheOptions, redis []RedisOptions) error {
	switch opts.Type {
	case CacheMemory, CacheLRU:
	case CacheRedis:
		if !hasRedis(redis, opts.RedisID) {
			msg := fmt.Sprintf("redis id '%s' can't be found for cache", opts.RedisID)
			fullpath := []string{"cache", "redis_id"}
			return newInvalidConfig(fullpath, opts.RedisID, msg)
		}
	default:
		msg := fmt.Sprintf("cache type '%s' is not supported", opts.Type)
		fullpath := []string{"cache", "type"}
		return newInvalidConfig(fullpath, opts.Type, msg)
	}

	return nil
}

func validateResolver(opts ResolverOptions, redis []RedisOptions) error {
	if opts.TrialDelay < 0 {
		fullpath := []string{"resolver", "trial_delay"}
		return newInvalidConfig(fullpath, opts.TrialDelay, "trial_delay can't be negative")
	}

	if opts.NumericMax < 0 {
		fullpath := []string{"resolver", "numeric_max"}
		return newInvalidConfig(fullpath, opts.NumericMax, "numeric_max can't be negative")
	}

	if opts.Index.Enabled && opts.Index.RedisID != "" && !hasRedis(redis, opts.Index.RedisID) {
		msg := fmt.Sprintf("redis id '%s' can't be found for resolver index", opts.Index.RedisID)
		fullpath := []string{"resolver", "index", "redis_id"}
		return newInvalidConfig(fullpath, opts.Index.RedisID, msg)
	}

	return nil
}

func validateRedis(options []RedisOptions) error {
	ids := map[string]bool{}
	for i, opt := range options {
		if opt.ID == "" {
			fullpath := []string{"redis", fmt.Sprint(i), "id"}
			return newInvalidConfig(fullpath, opt.ID, "redis id can't be empty")
		}

		if ids[opt.ID] {
			msg := fmt.Sprintf("redis id '%s' is duplicate", opt.ID)
			fullpath := []string{"redis", fmt.Sprint(i), "id"}
			return newInvalidConfig(fullpath, opt.ID, msg)
		}
		ids[opt.ID] = true

		if len(opt.Addrs) == 0 {
			msg := fmt.Sprintf("redis '%s' addrs can't be empty", opt.ID)
			fullpath := []string{"redis", fmt.Sprint(i), "addrs"}
			return newInvalidConfig(fullpath, opt.Addrs, msg)
		}
	}

	return nil
}

func hasRedis(options []RedisOptions, id string) bool {
	if id == "" {
		return false
	}
	for _, opt := range options {
		if opt.ID == id {
			return true
		}
	}
	return false
}
