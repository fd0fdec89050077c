package prommetric

import (
	"context"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/nite-coder/ccipgate/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ccipgate_prommetric_test_total",
	Help: "counter used by the prom_metric tests",
})

func newRequest(method, uri string) *app.RequestContext {
	c := app.NewContext(0)
	c.Request.SetMethod(method)
	c.Request.SetRequestURI(uri)
	return c
}

func TestPromMetric(t *testing.T) {
	testCounter.Inc()
	m := New("/metrics")

	c := newRequest("GET", "http://gateway.local/metrics")
	m.ServeHTTP(context.Background(), c)
	assert.True(t, c.IsAborted())
	assert.Equal(t, 200, c.Response.StatusCode())
	assert.Contains(t, string(c.Response.Body()), "ccipgate_prommetric_test_total 1")

	c = newRequest("GET", "http://gateway.local/healthz")
	m.ServeHTTP(context.Background(), c)
	assert.False(t, c.IsAborted())
	assert.Empty(t, c.Response.Body())

	c = newRequest("POST", "http://gateway.local/metrics")
	m.ServeHTTP(context.Background(), c)
	assert.False(t, c.IsAborted())
}

func TestInit(t *testing.T) {
	require.NoError(t, Init())

	h, err := middleware.Factory("prom_metric")(map[string]any{"path": "/internal/metrics"})
	require.NoError(t, err)

	c := newRequest("GET", "http://gateway.local/internal/metrics")
	h(context.Background(), c)
	assert.True(t, c.IsAborted())
}
