// Package gateway answers CCIP-Read lookups for names under the root domain.
package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/nite-coder/ccipgate/internal/pkg/safety"
	"github.com/nite-coder/ccipgate/pkg/abi"
	"github.com/nite-coder/ccipgate/pkg/config"
	"github.com/nite-coder/ccipgate/pkg/log"
	"github.com/nite-coder/ccipgate/pkg/registry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Request is a CCIP-Read lookup. Data is the 0x prefixed hex payload.
type Request struct {
	Sender string `json:"sender"`
	Data   string `json:"data"`
}

// UsernameResolver maps a node to the username it was derived from.
type UsernameResolver interface {
	Resolve(ctx context.Context, node common.Hash) (string, error)
}

type Dispatcher struct {
	options  config.GatewayOptions
	resolver UsernameResolver
	registry registry.Client
}

func NewDispatcher(options config.GatewayOptions, resolver UsernameResolver, client registry.Client) *Dispatcher {
	return &Dispatcher{
		options:  options,
		resolver: resolver,
		registry: client,
	}
}

// Resolve runs a lookup to completion and returns the ABI encoded answer.
// Every failure is a *Error.
func (d *Dispatcher) Resolve(ctx context.Context, req Request) (result []byte, err error) {
	start := time.Now()
	method := abi.MethodUnknown

	ctx, span := otel.Tracer("ccipgate").Start(ctx, "gateway.resolve", trace.WithSpanKind(trace.SpanKindInternal))
	defer func() {
		var kind Kind
		if err != nil {
			gwErr := classify(err)
			kind = gwErr.Kind
			err = gwErr
			span.SetStatus(otelcodes.Error, gwErr.Error())
		}
		span.SetAttributes(attribute.String("ccip.method", method.String()))
		span.End()
		observe(method.String(), kind, start)
	}()

	if d.options.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.options.RequestTimeout)
		defer cancel()
	}

	payload, err := validate(req)
	if err != nil {
		return nil, err
	}

	var decoded *abi.Request
	err = safety.Call(func() error {
		var decodeErr error
		decoded, decodeErr = abi.DecodeRequest(payload)
		return decodeErr
	})
	if err != nil {
		return nil, err
	}

	method = decoded.Method()
	if method == abi.MethodUnknown {
		return nil, newError(KindUnsupported, nil, "selector %s is not supported", decoded.Selector.Hex())
	}

	username, err := d.resolver.Resolve(ctx, decoded.Node)
	if err != nil {
		return nil, err
	}

	logger := log.FromContext(ctx)

	switch method {
	case abi.MethodAddr:
		addr, err := d.registry.GetAddress(ctx, username)
		if err != nil {
			return nil, err
		}
		logger.Debug("gateway: addr resolved", "username", username, "address", addr.Hex())
		return abi.EncodeAddress(addr), nil
	case abi.MethodText:
		value, err := d.registry.GetText(ctx, username, decoded.Key)
		if err != nil {
			return nil, err
		}
		value = d.normalizeText(decoded.Key, value)
		logger.Debug("gateway: text resolved", "username", username, "key", decoded.Key)
		return abi.EncodeString(value), nil
	}

	return nil, newError(KindUnsupported, nil, "selector %s is not supported", decoded.Selector.Hex())
}

func validate(req Request) ([]byte, error) {
	if strings.TrimSpace(req.Sender) == "" {
		return nil, newError(KindBadRequest, nil, "sender is required")
	}

	if req.Data == "" {
		return nil, newError(KindBadRequest, nil, "data is required")
	}

	payload, err := hexutil.Decode(req.Data)
	if err != nil {
		return nil, newError(KindBadRequest, err, "data is not 0x prefixed hex: %s", err.Error())
	}

	return payload, nil
}

// normalizeText turns a flat comma separated value stored under a reserved key prefix
// into a JSON array. JSON arrays and objects pass through. A JSON string is unquoted and
// split like a flat value; other JSON scalars are kept as a single item.
func (d *Dispatcher) normalizeText(key, value string) string {
	if !d.reserved(key) {
		return value
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return value
	}

	if sonic.Valid([]byte(trimmed)) {
		switch trimmed[0] {
		case '[', '{':
			return value
		case '"':
			var unquoted string
			if err := sonic.UnmarshalString(trimmed, &unquoted); err == nil {
				trimmed = strings.TrimSpace(unquoted)
			}
		}
	}

	items := make([]string, 0, strings.Count(trimmed, ",")+1)
	for _, item := range strings.Split(trimmed, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	b, err := sonic.Marshal(items)
	if err != nil {
		return value
	}
	return string(b)
}

func (d *Dispatcher) reserved(key string) bool {
	for _, prefix := range d.options.ReservedPrefixes {
		if prefix != "" && strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
