package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-resty/resty/v2"
	"github.com/nite-coder/ccipgate/pkg/abi"
	"github.com/nite-coder/ccipgate/pkg/config"
	"github.com/nite-coder/ccipgate/pkg/log"
	"github.com/nite-coder/ccipgate/pkg/namehash"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// codeExecutionReverted is what geth and most providers return for a reverted eth_call.
const codeExecutionReverted = 3

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// RPCError is a JSON-RPC error object returned by a node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (e *RPCError) reverted() bool {
	return e.Code == codeExecutionReverted || strings.Contains(strings.ToLower(e.Message), "execution reverted")
}

type callArgs struct {
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

// RPCClient talks to the registry contract through an ordered list of JSON-RPC endpoints.
// A call moves on to the next endpoint when one fails at the transport, HTTP or node level.
// A contract revert ends the call immediately.
type RPCClient struct {
	contract   common.Address
	endpoints  []*Endpoint
	client     *resty.Client
	tracer     trace.Tracer
	eventTopic common.Hash
	nextID     atomic.Uint64
}

func NewRPCClient(options config.RegistryOptions) (*RPCClient, error) {
	if !common.IsHexAddress(options.Contract) {
		return nil, fmt.Errorf("registry: contract '%s' is not a hex address", options.Contract)
	}

	if len(options.Endpoints) == 0 {
		return nil, errors.New("registry: endpoints can't be empty")
	}

	timeout := options.Timeout
	if timeout <= 0 {
		timeout = config.DefaultRegistryTimeout
	}

	failTimeout := options.FailTimeout
	if failTimeout <= 0 {
		failTimeout = config.DefaultFailTimeout
	}

	endpoints := make([]*Endpoint, 0, len(options.Endpoints))
	for _, rawURL := range options.Endpoints {
		rawURL = strings.TrimSpace(rawURL)
		if rawURL == "" {
			return nil, errors.New("registry: endpoint can't be empty")
		}
		endpoints = append(endpoints, newEndpoint(rawURL, options.MaxFails, failTimeout))
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	c := &RPCClient{
		contract:  common.HexToAddress(options.Contract),
		endpoints: endpoints,
		client:    client,
		tracer:    otel.Tracer("ccipgate"),
	}

	if options.EventSignature != "" {
		c.eventTopic = common.BytesToHash(namehash.Keccak256([]byte(options.EventSignature)))
	}

	return c, nil
}

func (c *RPCClient) Contract() common.Address {
	return c.contract
}

func (c *RPCClient) Endpoints() []*Endpoint {
	return c.endpoints
}

func (c *RPCClient) GetAddress(ctx context.Context, username string) (common.Address, error) {
	out, err := c.ethCall(ctx, abi.EncodeCall(abi.SelectorGetAddress, username))
	if err != nil {
		return common.Address{}, fmt.Errorf("registry: getAddress(%s): %w", username, err)
	}

	addr, err := abi.DecodeAddress(out)
	if err != nil {
		return common.Address{}, fmt.Errorf("registry: getAddress(%s): %w", username, err)
	}
	return addr, nil
}

func (c *RPCClient) GetText(ctx context.Context, username, key string) (string, error) {
	out, err := c.ethCall(ctx, abi.EncodeCall(abi.SelectorGetText, username, key))
	if err != nil {
		return "", fmt.Errorf("registry: getText(%s, %s): %w", username, key, err)
	}

	value, err := abi.DecodeString(out)
	if err != nil {
		return "", fmt.Errorf("registry: getText(%s, %s): %w", username, key, err)
	}
	return value, nil
}

func (c *RPCClient) GetProfile(ctx context.Context, username string) (Profile, error) {
	out, err := c.ethCall(ctx, abi.EncodeCall(abi.SelectorGetProfile, username))
	if err != nil {
		return Profile{}, fmt.Errorf("registry: getProfile(%s): %w", username, err)
	}

	owner, name, exists, err := abi.DecodeProfile(out)
	if err != nil {
		return Profile{}, fmt.Errorf("registry: getProfile(%s): %w", username, err)
	}

	return Profile{
		Owner:    owner,
		Username: name,
		Exists:   exists,
	}, nil
}

func (c *RPCClient) ethCall(ctx context.Context, data []byte) ([]byte, error) {
	params := []any{
		callArgs{To: c.contract, Data: data},
		"latest",
	}

	var out hexutil.Bytes
	if err := c.call(ctx, "eth_call", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RPCClient) call(ctx context.Context, method string, params []any, result any) error {
	body, err := sonic.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal %s request failed: %w", method, err)
	}

	logger := log.FromContext(ctx)

	var lastErr error
	for _, endpoint := range c.endpoints {
		if !endpoint.IsAvailable() {
			continue
		}

		raw, err := c.send(ctx, endpoint, method, body)
		if err == nil {
			registryCalls.WithLabelValues(method, endpoint.Host(), resultSuccess).Inc()
			if result == nil {
				return nil
			}
			if err := sonic.Unmarshal(raw, result); err != nil {
				return fmt.Errorf("decode %s result failed: %w", method, err)
			}
			return nil
		}

		var rpcErr *RPCError
		if errors.As(err, &rpcErr) && rpcErr.reverted() {
			registryCalls.WithLabelValues(method, endpoint.Host(), resultReverted).Inc()
			return fmt.Errorf("%w: %s", ErrReverted, rpcErr.Message)
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			registryCalls.WithLabelValues(method, endpoint.Host(), resultUnavailable).Inc()
			return fmt.Errorf("%w: %w", ErrUnavailable, ctxErr)
		}

		registryCalls.WithLabelValues(method, endpoint.Host(), resultFailover).Inc()
		lastErr = err

		if endpoint.AddFailedCount(1) {
			logger.Warn("registry: endpoint is marked unavailable",
				slog.String("endpoint", endpoint.Host()),
				slog.String("method", method),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Debug("registry: endpoint failed, trying next",
				slog.String("endpoint", endpoint.Host()),
				slog.String("method", method),
				slog.String("error", err.Error()),
			)
		}
	}

	registryCalls.WithLabelValues(method, "", resultUnavailable).Inc()
	if lastErr == nil {
		return fmt.Errorf("%w: every endpoint is marked down", ErrUnavailable)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, lastErr)
}

func (c *RPCClient) send(ctx context.Context, endpoint *Endpoint, method string, body []byte) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "registry "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("rpc.system", "jsonrpc"),
			attribute.String("rpc.method", method),
			attribute.String("server.address", endpoint.Host()),
		),
	)
	defer span.End()

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(endpoint.URL())
	if err != nil {
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("endpoint %s: %w", endpoint.Host(), err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		err := fmt.Errorf("endpoint %s responded with status %d", endpoint.Host(), resp.StatusCode())
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	var reply rpcResponse
	if err := sonic.Unmarshal(resp.Body(), &reply); err != nil {
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("endpoint %s: invalid json-rpc response: %w", endpoint.Host(), err)
	}

	if reply.Error != nil {
		span.SetStatus(otelcodes.Error, reply.Error.Message)
		return nil, reply.Error
	}

	span.SetStatus(otelcodes.Ok, "")
	return reply.Result, nil
}
