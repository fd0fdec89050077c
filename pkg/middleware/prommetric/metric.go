package prommetric

import (
	"bytes"
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/nite-coder/ccipgate/pkg/config"
	"github.com/nite-coder/ccipgate/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var httpGET = []byte(http.MethodGet)

type Options struct {
	Path string `mapstructure:"path"`
}

// PromMetricMiddleware answers GET requests on its path with the default registry.
type PromMetricMiddleware struct {
	path    []byte
	handler http.Handler
}

func New(path string) *PromMetricMiddleware {
	if path == "" {
		path = config.DefaultMetricsPath
	}
	return &PromMetricMiddleware{
		path:    []byte(path),
		handler: promhttp.Handler(),
	}
}

func (m *PromMetricMiddleware) ServeHTTP(ctx context.Context, c *app.RequestContext) {
	if !bytes.Equal(c.Request.Method(), httpGET) || !bytes.Equal(c.Request.Path(), m.path) {
		c.Next(ctx)
		return
	}

	httpReq, err := adaptor.GetCompatRequest(&c.Request)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	httpResp := adaptor.GetCompatResponseWriter(&c.Response)

	m.handler.ServeHTTP(httpResp, httpReq)
	c.Abort()
}

func Init() error {
	return middleware.RegisterTyped([]string{"prom_metric"}, func(options Options) (app.HandlerFunc, error) {
		return New(options.Path).ServeHTTP, nil
	})
}
