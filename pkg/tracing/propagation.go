package tracing

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/protocol"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/contrib/propagators/jaeger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

var _ propagation.TextMapCarrier = &headerCarrier{}

// headerCarrier exposes hertz request headers to otel propagators.
type headerCarrier struct {
	headers *protocol.RequestHeader
}

func (c *headerCarrier) Get(key string) string {
	return c.headers.Get(key)
}

func (c *headerCarrier) Set(key, value string) {
	c.headers.Set(key, value)
}

func (c *headerCarrier) Keys() []string {
	var out []string
	c.headers.VisitAll(func(key, _ []byte) {
		out = append(out, string(key))
	})
	return out
}

// Inject writes the span context of ctx into headers.
func Inject(ctx context.Context, headers *protocol.RequestHeader) {
	otel.GetTextMapPropagator().Inject(ctx, &headerCarrier{headers: headers})
}

// Extract returns ctx enriched with the remote span context and baggage found in headers.
func Extract(ctx context.Context, headers *protocol.RequestHeader) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, &headerCarrier{headers: headers})
}

// Propagator builds a composite propagator from names. Unknown names are ignored;
// an empty result falls back to tracecontext and baggage.
func Propagator(names []string) propagation.TextMapPropagator {
	var propagators []propagation.TextMapPropagator

	for _, name := range names {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case "tracecontext":
			propagators = append(propagators, propagation.TraceContext{})
		case "baggage":
			propagators = append(propagators, propagation.Baggage{})
		case "b3":
			propagators = append(propagators, b3.New())
		case "jaeger":
			propagators = append(propagators, jaeger.Jaeger{})
		}
	}

	if len(propagators) == 0 {
		propagators = append(propagators, propagation.TraceContext{}, propagation.Baggage{})
	}

	return propagation.NewCompositeTextMapPropagator(propagators...)
}
