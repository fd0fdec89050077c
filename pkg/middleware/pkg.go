package middleware

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/go-viper/mapstructure/v2"
	"github.com/nite-coder/ccipgate/pkg/config"
)

var (
	mu                sync.RWMutex
	middlewareFactory = make(map[string]CreateMiddlewareHandler)
)

// CreateMiddlewareHandler builds a handler from the raw `params` of a middleware entry.
type CreateMiddlewareHandler func(params any) (app.HandlerFunc, error)

// Register binds a factory to one or more middleware types.
func Register(names []string, handler CreateMiddlewareHandler) error {
	if len(names) == 0 {
		return errors.New("middleware names can't be empty")
	}

	mu.Lock()
	defer mu.Unlock()

	for _, name := range names {
		if _, found := middlewareFactory[name]; found {
			return fmt.Errorf("middleware '%s' already exists", name)
		}
	}

	for _, name := range names {
		middlewareFactory[name] = handler
	}

	return nil
}

// RegisterTyped registers a factory whose params are decoded into T.
func RegisterTyped[T any](names []string, create func(T) (app.HandlerFunc, error)) error {
	return Register(names, func(params any) (app.HandlerFunc, error) {
		var cfg T
		if err := Decode(params, &cfg); err != nil {
			return nil, err
		}
		return create(cfg)
	})
}

// Factory returns the factory registered for name, or nil.
func Factory(name string) CreateMiddlewareHandler {
	mu.RLock()
	defer mu.RUnlock()
	return middlewareFactory[name]
}

// Decode maps params onto out. Durations may be given as strings such as "10s".
func Decode(params any, out any) error {
	if params == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(params)
}

// Load builds the handler chain in configuration order.
func Load(options []config.MiddlewareOptions) (app.HandlersChain, error) {
	chain := make(app.HandlersChain, 0, len(options))

	for _, opts := range options {
		if len(opts.Type) == 0 {
			return nil, errors.New("middleware type can't be empty")
		}

		create := Factory(opts.Type)
		if create == nil {
			return nil, fmt.Errorf("middleware type '%s' was not found", opts.Type)
		}

		handler, err := create(opts.Params)
		if err != nil {
			return nil, fmt.Errorf("middleware type '%s' params is invalid: %w", opts.Type, err)
		}

		chain = append(chain, handler)
	}

	return chain, nil
}
