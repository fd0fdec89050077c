package tracing

import (
	"context"
	"fmt"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/nite-coder/blackbear/pkg/cast"
	"github.com/nite-coder/ccipgate/pkg/middleware"
	"github.com/nite-coder/ccipgate/pkg/tracing"
	"github.com/nite-coder/ccipgate/pkg/variable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Options struct {
	// ResponseHeader, when set, echoes the trace id back to the caller.
	ResponseHeader string `mapstructure:"response_header"`
}

type TracingMiddleware struct {
	responseHeader string
}

func NewMiddleware(options Options) *TracingMiddleware {
	return &TracingMiddleware{
		responseHeader: options.ResponseHeader,
	}
}

func (m *TracingMiddleware) ServeHTTP(ctx context.Context, c *app.RequestContext) {
	ctx = tracing.Extract(ctx, &c.Request.Header)

	method := cast.B2S(c.Method())
	path := cast.B2S(c.Request.Path())

	ctx, span := otel.Tracer("ccipgate").Start(ctx, method+" "+path,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
			attribute.String("client.address", c.ClientIP()),
		),
	)
	defer span.End()

	if spanCtx := span.SpanContext(); spanCtx.HasTraceID() {
		traceID := spanCtx.TraceID().String()
		c.Set(variable.TraceID, traceID)
		if m.responseHeader != "" {
			c.Response.Header.Set(m.responseHeader, traceID)
		}
	}

	c.Next(ctx)

	status := c.Response.StatusCode()
	span.SetAttributes(attribute.Int("http.response.status_code", status))
	if status >= 500 {
		span.SetStatus(otelcodes.Error, fmt.Sprintf("status %d", status))
	}
}

func Init() error {
	return middleware.RegisterTyped([]string{"tracing"}, func(options Options) (app.HandlerFunc, error) {
		return NewMiddleware(options).ServeHTTP, nil
	})
}
