package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/nite-coder/ccipgate/pkg/log"
	"github.com/nite-coder/ccipgate/pkg/variable"
)

const contentTypeJSON = "application/json; charset=utf-8"

type lookupResponse struct {
	Data string `json:"data"`
}

type errorResponse struct {
	Error   Kind   `json:"error"`
	Details string `json:"details"`
}

// Handler exposes the dispatcher over HTTP.
type Handler struct {
	dispatcher *Dispatcher
	debug      bool
}

func NewHandler(dispatcher *Dispatcher, debug bool) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		debug:      debug,
	}
}

// Register mounts the gateway routes. The registry diagnostic route is only mounted in debug mode.
func (h *Handler) Register(r route.IRoutes) {
	r.GET("/lookup/:sender/:data", h.lookupByPath)
	r.POST("/lookup", h.lookupByBody)
	r.GET("/healthz", h.healthz)

	if h.debug {
		r.POST("/debug/registry", h.debugRegistry)
	}
}

func (h *Handler) lookupByPath(ctx context.Context, c *app.RequestContext) {
	req := Request{
		Sender: c.Param("sender"),
		Data:   strings.TrimSuffix(c.Param("data"), ".json"),
	}
	h.lookup(ctx, c, req)
}

func (h *Handler) lookupByBody(ctx context.Context, c *app.RequestContext) {
	var req Request
	if err := sonic.Unmarshal(c.Request.Body(), &req); err != nil {
		writeError(ctx, c, newError(KindBadRequest, err, "body is not a valid lookup request"))
		return
	}
	h.lookup(ctx, c, req)
}

func (h *Handler) lookup(ctx context.Context, c *app.RequestContext, req Request) {
	result, err := h.dispatcher.Resolve(ctx, req)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.Set(variable.LookupResult, "ok")
	writeJSON(ctx, c, http.StatusOK, lookupResponse{Data: hexutil.Encode(result)})
}

func (h *Handler) debugRegistry(ctx context.Context, c *app.RequestContext) {
	var req DebugRequest
	if err := sonic.Unmarshal(c.Request.Body(), &req); err != nil {
		writeError(ctx, c, newError(KindBadRequest, err, "body is not a valid debug request"))
		return
	}

	resp, err := h.dispatcher.Debug(ctx, req)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	writeJSON(ctx, c, http.StatusOK, resp)
}

func (h *Handler) healthz(ctx context.Context, c *app.RequestContext) {
	writeJSON(ctx, c, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(ctx context.Context, c *app.RequestContext, err error) {
	gwErr := classify(err)

	logger := log.FromContext(ctx)
	switch gwErr.Kind {
	case KindUpstreamUnavailable, KindUpstreamError:
		logger.Warn("gateway: registry failure", "kind", gwErr.Kind, "error", gwErr.Err)
	case KindNotFound:
		// absence is an expected answer
	default:
		logger.Debug("gateway: request rejected", "kind", gwErr.Kind, "details", gwErr.Details)
	}

	c.Set(variable.LookupResult, string(gwErr.Kind))
	writeJSON(ctx, c, gwErr.Kind.Status(), errorResponse{Error: gwErr.Kind, Details: gwErr.Details})
}

func writeJSON(ctx context.Context, c *app.RequestContext, status int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		log.FromContext(ctx).Error("gateway: encode response failed", "error", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(status, contentTypeJSON, body)
}
