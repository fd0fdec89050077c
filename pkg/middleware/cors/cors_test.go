package cors

import (
	"context"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/nite-coder/ccipgate/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(method, origin string) *app.RequestContext {
	c := app.NewContext(0)
	c.Request.SetMethod(method)
	c.Request.SetRequestURI("http://gateway.local/lookup")
	if origin != "" {
		c.Request.Header.Set("Origin", origin)
	}
	return c
}

func TestCorsWildcard(t *testing.T) {
	m, err := NewMiddleware(Options{})
	require.NoError(t, err)

	c := newRequest("GET", "https://wallet.example")
	m.ServeHTTP(context.Background(), c)
	assert.Equal(t, "*", string(c.Response.Header.Peek("Access-Control-Allow-Origin")))
	assert.False(t, c.IsAborted())

	c = newRequest("OPTIONS", "https://wallet.example")
	c.Request.Header.Set("Access-Control-Request-Method", "POST")
	m.ServeHTTP(context.Background(), c)
	assert.True(t, c.IsAborted())
	assert.Equal(t, 204, c.Response.StatusCode())
	assert.Equal(t, "GET,POST,OPTIONS", string(c.Response.Header.Peek("Access-Control-Allow-Methods")))
	assert.Equal(t, "43200", string(c.Response.Header.Peek("Access-Control-Max-Age")))
}

func TestCorsAllowList(t *testing.T) {
	m, err := NewMiddleware(Options{
		AllowOrigins:     []string{"https://app.contx.xyz"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
	})
	require.NoError(t, err)

	c := newRequest("GET", "https://APP.contx.xyz")
	m.ServeHTTP(context.Background(), c)
	assert.Equal(t, "https://APP.contx.xyz", string(c.Response.Header.Peek("Access-Control-Allow-Origin")))
	assert.Equal(t, "true", string(c.Response.Header.Peek("Access-Control-Allow-Credentials")))
	assert.Equal(t, "X-Request-ID", string(c.Response.Header.Peek("Access-Control-Expose-Headers")))

	c = newRequest("GET", "https://evil.example")
	m.ServeHTTP(context.Background(), c)
	assert.True(t, c.IsAborted())
	assert.Equal(t, 403, c.Response.StatusCode())

	c = newRequest("GET", "")
	m.ServeHTTP(context.Background(), c)
	assert.False(t, c.IsAborted())
	assert.Empty(t, c.Response.Header.Peek("Access-Control-Allow-Origin"))
}

func TestCorsWildcardCredentials(t *testing.T) {
	_, err := NewMiddleware(Options{AllowOrigins: []string{"*"}, AllowCredentials: true})
	assert.Error(t, err)
}

func TestInit(t *testing.T) {
	require.NoError(t, Init())

	h, err := middleware.Factory("cors")(map[string]any{
		"allow_origins": []any{"https://app.contx.xyz"},
		"max_age":       "1m",
	})
	require.NoError(t, err)

	c := newRequest("OPTIONS", "https://app.contx.xyz")
	c.Request.Header.Set("Access-Control-Request-Method", "GET")
	h(context.Background(), c)
	assert.Equal(t, "60", string(c.Response.Header.Peek("Access-Control-Max-Age")))
}
