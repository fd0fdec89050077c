package gateway

import (
	"context"

	"github.com/nite-coder/ccipgate/pkg/registry"
	"github.com/nite-coder/ccipgate/pkg/resolver"
)

const (
	DebugGetAddress   = "getAddress"
	DebugGetText      = "getText"
	DebugGetProfile   = "getProfile"
	DebugIsRegistered = "isRegistered"
)

// DebugRequest invokes one registry read directly, skipping decoding and discovery.
type DebugRequest struct {
	Username string `json:"username"`
	Method   string `json:"method"`
	Key      string `json:"key,omitempty"`
}

type DebugResponse struct {
	Username string         `json:"username"`
	Method   string         `json:"method"`
	Result   map[string]any `json:"result"`
}

// Debug runs a diagnostic registry read. Every failure is a *Error.
func (d *Dispatcher) Debug(ctx context.Context, req DebugRequest) (*DebugResponse, error) {
	if err := resolver.ValidateUsername(req.Username); err != nil {
		return nil, newError(KindBadRequest, err, "%s", err.Error())
	}

	if d.options.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.options.RequestTimeout)
		defer cancel()
	}

	resp := &DebugResponse{
		Username: req.Username,
		Method:   req.Method,
	}

	switch req.Method {
	case DebugGetAddress:
		addr, err := d.registry.GetAddress(ctx, req.Username)
		if err != nil {
			return nil, classify(err)
		}
		resp.Result = map[string]any{"address": addr.Hex()}
	case DebugGetText:
		if req.Key == "" {
			return nil, newError(KindBadRequest, nil, "key is required for %s", DebugGetText)
		}
		value, err := d.registry.GetText(ctx, req.Username, req.Key)
		if err != nil {
			return nil, classify(err)
		}
		resp.Result = map[string]any{"key": req.Key, "value": value}
	case DebugGetProfile, DebugIsRegistered:
		profile, err := d.registry.GetProfile(ctx, req.Username)
		if err != nil {
			return nil, classify(err)
		}
		if req.Method == DebugIsRegistered {
			resp.Result = map[string]any{"registered": profile.Exists}
			break
		}
		resp.Result = profileResult(profile)
	default:
		return nil, newError(KindBadRequest, nil, "method '%s' is not supported", req.Method)
	}

	return resp, nil
}

func profileResult(profile registry.Profile) map[string]any {
	return map[string]any{
		"owner":    profile.Owner.Hex(),
		"username": profile.Username,
		"exists":   profile.Exists,
	}
}
