package tracing

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/nite-coder/ccipgate/pkg/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

const (
	defaultEndpoint    = "localhost:4317"
	defaultServiceName = "ccipgate"
)

// NewProvider installs a global tracer provider exporting spans over OTLP.
// It returns nil when tracing is disabled. Endpoints starting with http or https
// use the http exporter, anything else is dialed over grpc.
func NewProvider(ctx context.Context, opts config.TracingOptions) (*sdktrace.TracerProvider, error) {
	if !opts.Enabled {
		return nil, nil
	}

	if opts.Endpoint == "" {
		opts.Endpoint = defaultEndpoint
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}

	if opts.QueueSize <= 0 {
		opts.QueueSize = 10000
	}

	if opts.Flush <= 0 {
		opts.Flush = 5 * time.Second
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	exporter, err := newExporter(ctx, opts)
	if err != nil {
		return nil, err
	}

	provider, err := newTracerProvider(ctx, exporter, opts)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(Propagator(opts.Propagators))

	return provider, nil
}

func newExporter(ctx context.Context, opts config.TracingOptions) (sdktrace.SpanExporter, error) {
	endpoint := strings.ToLower(opts.Endpoint)

	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		httpOptions := []otlptracehttp.Option{
			otlptracehttp.WithEndpointURL(opts.Endpoint),
			otlptracehttp.WithTimeout(opts.Timeout),
		}

		if opts.Insecure {
			httpOptions = append(httpOptions, otlptracehttp.WithInsecure())
		}

		return otlptracehttp.New(ctx, httpOptions...)
	}

	grpcOptions := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(opts.Endpoint),
		otlptracegrpc.WithTimeout(opts.Timeout),
	}

	if opts.Insecure {
		grpcOptions = append(grpcOptions, otlptracegrpc.WithInsecure())
	}

	return otlptracegrpc.New(ctx, grpcOptions...)
}

func newTracerProvider(ctx context.Context, exporter sdktrace.SpanExporter, opts config.TracingOptions) (*sdktrace.TracerProvider, error) {
	if opts.ServiceName == "" {
		opts.ServiceName = defaultServiceName
	}

	attrs := []attribute.KeyValue{
		semconv.ServiceName(opts.ServiceName),
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range buildInfo.Settings {
			switch setting.Key {
			case "vcs.revision", "vcs.time":
				attrs = append(attrs, attribute.String(setting.Key, setting.Value))
			}
		}
	}

	res, err := resource.New(
		ctx,
		resource.WithFromEnv(),
		resource.WithProcessPID(),
		resource.WithProcessRuntimeVersion(),
		resource.WithOSType(),
		resource.WithHost(),
		resource.WithAttributes(attrs...),
	)
	if err != nil {
		return nil, err
	}

	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SamplingRate))

	processor := sdktrace.NewBatchSpanProcessor(exporter,
		sdktrace.WithMaxQueueSize(int(opts.QueueSize)),
		sdktrace.WithMaxExportBatchSize(int(opts.BatchSize)),
		sdktrace.WithBatchTimeout(opts.Flush),
	)

	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sampler),
		sdktrace.WithSpanProcessor(processor),
		sdktrace.WithResource(res),
	), nil
}
