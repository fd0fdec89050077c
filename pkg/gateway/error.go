package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/nite-coder/ccipgate/internal/pkg/safety"
	"github.com/nite-coder/ccipgate/pkg/abi"
	"github.com/nite-coder/ccipgate/pkg/registry"
	"github.com/nite-coder/ccipgate/pkg/resolver"
)

// Kind is the machine readable error identifier returned to callers.
type Kind string

const (
	KindBadRequest          Kind = "bad_request"
	KindNotFound            Kind = "not_found"
	KindUnsupported         Kind = "unsupported"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindUpstreamError       Kind = "upstream_error"
)

// Retryable reports whether a caller may retry the same request later.
func (k Kind) Retryable() bool {
	return k == KindUpstreamUnavailable
}

func (k Kind) Status() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound, KindUnsupported:
		return http.StatusNotFound
	case KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

type Error struct {
	Kind    Kind
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Details == "" {
		return "gateway: " + string(e.Kind)
	}
	return fmt.Sprintf("gateway: %s: %s", e.Kind, e.Details)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Details: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// classify maps an error from the codec, resolver or registry to a gateway error.
func classify(err error) *Error {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr
	}

	var panicErr *safety.PanicError
	switch {
	case errors.As(err, &panicErr):
		return newError(KindBadRequest, err, "malformed request")
	case errors.Is(err, abi.ErrDecode):
		return newError(KindBadRequest, err, "%s", err.Error())
	case errors.Is(err, resolver.ErrNotFound):
		return newError(KindNotFound, err, "no registered username matches the node")
	case errors.Is(err, registry.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return newError(KindUpstreamUnavailable, err, "registry is unavailable")
	default:
		return newError(KindUpstreamError, err, "registry read failed")
	}
}
