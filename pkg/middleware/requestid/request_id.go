package requestid

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	"github.com/nite-coder/ccipgate/pkg/log"
	"github.com/nite-coder/ccipgate/pkg/middleware"
	"github.com/nite-coder/ccipgate/pkg/variable"
)

const defaultHeader = "X-Request-ID"

type Options struct {
	Header string `mapstructure:"header"`
	// Trust keeps an id supplied by the client instead of generating one.
	Trust bool `mapstructure:"trust"`
}

type RequestIDMiddleware struct {
	header string
	trust  bool
}

func NewMiddleware(options Options) *RequestIDMiddleware {
	if options.Header == "" {
		options.Header = defaultHeader
	}
	return &RequestIDMiddleware{
		header: options.Header,
		trust:  options.Trust,
	}
}

// ServeHTTP tags the request, the response and the request logger with an id.
func (m *RequestIDMiddleware) ServeHTTP(ctx context.Context, c *app.RequestContext) {
	var id string
	if m.trust {
		id = string(c.Request.Header.Peek(m.header))
	}
	if id == "" || len(id) > 128 {
		id = uuid.NewString()
	}

	c.Set(variable.RequestID, id)
	c.Response.Header.Set(m.header, id)

	logger := log.FromContext(ctx).With("request_id", id)
	c.Next(log.NewContext(ctx, logger))
}

func Init() error {
	return middleware.RegisterTyped([]string{"request_id"}, func(options Options) (app.HandlerFunc, error) {
		return NewMiddleware(options).ServeHTTP, nil
	})
}
