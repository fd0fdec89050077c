package gateway

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	hzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzslog "github.com/hertz-contrib/logger/slog"
	"github.com/hertz-contrib/pprof"
	"github.com/nite-coder/ccipgate/pkg/accesslog"
	"github.com/nite-coder/ccipgate/pkg/config"
)

type HTTPServer struct {
	options *config.ServerOptions
	server  *server.Hertz
}

func newHTTPServer(serverOpts config.ServerOptions, chain app.HandlersChain, handler *Handler, accessLog *accesslog.Tracer) *HTTPServer {
	hzOpts := []hzconfig.Option{
		server.WithHostPorts(serverOpts.Bind),
		server.WithDisableDefaultDate(true),
		server.WithDisablePrintRoute(true),
		server.WithSenseClientDisconnection(true),
		server.WithReadTimeout(time.Second * 60),
		server.WithWriteTimeout(time.Second * 60),
		server.WithExitWaitTime(time.Second * 10),
		server.WithKeepAliveTimeout(time.Second * 60),
		server.WithKeepAlive(true),
	}

	if serverOpts.Timeout.KeepAlive > 0 {
		hzOpts = append(hzOpts, server.WithKeepAliveTimeout(serverOpts.Timeout.KeepAlive))
	}

	if serverOpts.Timeout.Idle > 0 {
		hzOpts = append(hzOpts, server.WithIdleTimeout(serverOpts.Timeout.Idle))
	}

	if serverOpts.Timeout.Read > 0 {
		hzOpts = append(hzOpts, server.WithReadTimeout(serverOpts.Timeout.Read))
	}

	if serverOpts.Timeout.Write > 0 {
		hzOpts = append(hzOpts, server.WithWriteTimeout(serverOpts.Timeout.Write))
	}

	if serverOpts.Timeout.Graceful > 0 {
		hzOpts = append(hzOpts, server.WithExitWaitTime(serverOpts.Timeout.Graceful))
	}

	if serverOpts.MaxRequestBodySize > 0 {
		hzOpts = append(hzOpts, server.WithMaxRequestBodySize(serverOpts.MaxRequestBodySize))
	}

	if accessLog != nil {
		hzOpts = append(hzOpts, server.WithTracer(accessLog))
	}

	// hertz logs go through slog and are dropped below error
	logger := hertzslog.NewLogger(hertzslog.WithOutput(io.Discard))
	hlog.SetLevel(hlog.LevelError)
	hlog.SetLogger(logger)
	hlog.SetSilentMode(true)

	h := server.Default(hzOpts...)

	if serverOpts.PPROF {
		pprof.Register(h)
	}

	h.Use(chain...)
	handler.Register(h)

	return &HTTPServer{
		options: &serverOpts,
		server:  h,
	}
}

// Run blocks until the server stops.
func (s *HTTPServer) Run() error {
	slog.Info("starting server", "bind", s.options.Bind)
	return s.server.Run()
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) Bind() string {
	return s.options.Bind
}
