package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	ErrConfigNotFound = errors.New("config file not found")
)

// Load reads the yaml file at path on top of the default options and validates the result.
func Load(path string) (Options, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return Options{}, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Options{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return Options{}, fmt.Errorf("config: read file error: %w", err)
	}

	mainOptions, err := Parse(content)
	if err != nil {
		return mainOptions, fmt.Errorf("config: %s: %w", path, err)
	}
	mainOptions.configPath = path

	if err := ValidateConfig(mainOptions); err != nil {
		return mainOptions, err
	}

	return mainOptions, nil
}

// Parse decodes yaml content into a copy of the default options and fills zero values back in.
func Parse(content []byte) (Options, error) {
	mainOptions := NewOptions()

	if err := yaml.Unmarshal(content, &mainOptions); err != nil {
		return mainOptions, fmt.Errorf("yaml unmarshal failed: %w", err)
	}

	applyDefaults(&mainOptions)
	return mainOptions, nil
}

func applyDefaults(opts *Options) {
	defaults := NewOptions()

	if opts.Server.Bind == "" {
		opts.Server.Bind = defaults.Server.Bind
	}

	if opts.Gateway.RootDomain == "" {
		opts.Gateway.RootDomain = defaults.Gateway.RootDomain
	}

	if opts.Gateway.RequestTimeout <= 0 {
		opts.Gateway.RequestTimeout = defaults.Gateway.RequestTimeout
	}

	if opts.Registry.Timeout <= 0 {
		opts.Registry.Timeout = defaults.Registry.Timeout
	}

	if opts.Registry.FailTimeout <= 0 {
		opts.Registry.FailTimeout = defaults.Registry.FailTimeout
	}

	if opts.Registry.RegisterSignature == "" {
		opts.Registry.RegisterSignature = defaults.Registry.RegisterSignature
	}

	if opts.Registry.EventSignature == "" {
		opts.Registry.EventSignature = defaults.Registry.EventSignature
	}

	if opts.Cache.Type == "" {
		opts.Cache.Type = defaults.Cache.Type
	}

	if opts.Cache.TTL <= 0 {
		opts.Cache.TTL = defaults.Cache.TTL
	}

	if opts.Cache.Size <= 0 {
		opts.Cache.Size = defaults.Cache.Size
	}

	if opts.Metrics.Prometheus.Path == "" {
		opts.Metrics.Prometheus.Path = defaults.Metrics.Prometheus.Path
	}
}
