package initialize

import (
	"sync"

	"github.com/nite-coder/ccipgate/pkg/middleware/compression"
	"github.com/nite-coder/ccipgate/pkg/middleware/cors"
	"github.com/nite-coder/ccipgate/pkg/middleware/iprestriction"
	"github.com/nite-coder/ccipgate/pkg/middleware/prommetric"
	"github.com/nite-coder/ccipgate/pkg/middleware/ratelimit"
	"github.com/nite-coder/ccipgate/pkg/middleware/requestid"
	"github.com/nite-coder/ccipgate/pkg/middleware/tracing"
)

var (
	middlewareOnce sync.Once
	middlewareErr  error
)

// Middleware registers the built-in middleware types. It is safe to call more than once.
func Middleware() error {
	middlewareOnce.Do(func() {
		inits := []func() error{
			compression.Init,
			cors.Init,
			iprestriction.Init,
			prommetric.Init,
			ratelimit.Init,
			requestid.Init,
			tracing.Init,
		}

		for _, initFn := range inits {
			if err := initFn(); err != nil {
				middlewareErr = err
				return
			}
		}
	})

	return middlewareErr
}
