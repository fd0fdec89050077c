package requestid

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	"github.com/nite-coder/ccipgate/pkg/log"
	"github.com/nite-coder/ccipgate/pkg/middleware"
	"github.com/nite-coder/ccipgate/pkg/variable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))
	ctx := log.NewContext(context.Background(), logger)

	m := NewMiddleware(Options{})

	c := app.NewContext(0)
	c.SetHandlers(app.HandlersChain{
		func(ctx context.Context, c *app.RequestContext) {
			log.FromContext(ctx).Info("handled")
		},
	})
	c.Request.Header.Set("X-Request-ID", "client-id")

	m.ServeHTTP(ctx, c)

	id := c.GetString(variable.RequestID)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, string(c.Response.Header.Peek("X-Request-ID")))
	assert.Contains(t, buf.String(), "request_id="+id)
}

func TestTrustedRequestID(t *testing.T) {
	m := NewMiddleware(Options{Header: "X-Trace", Trust: true})

	c := app.NewContext(0)
	c.Request.Header.Set("X-Trace", "client-id")
	m.ServeHTTP(context.Background(), c)

	assert.Equal(t, "client-id", c.GetString(variable.RequestID))
	assert.Equal(t, "client-id", string(c.Response.Header.Peek("X-Trace")))
}

func TestInit(t *testing.T) {
	require.NoError(t, Init())

	h, err := middleware.Factory("request_id")(nil)
	require.NoError(t, err)

	c := app.NewContext(0)
	h(context.Background(), c)
	assert.NotEmpty(t, c.GetString(variable.RequestID))
}
