package compression

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/compress"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/nite-coder/blackbear/pkg/cast"
	"github.com/nite-coder/ccipgate/pkg/middleware"
)

const (
	encodingGzip          = "gzip"
	headerAcceptEncoding  = "Accept-Encoding"
	headerContentEncoding = "Content-Encoding"
	headerVary            = "Vary"
)

type Options struct {
	Level int `mapstructure:"level"`
	// MinLength skips bodies shorter than this many bytes.
	MinLength     int      `mapstructure:"min_length"`
	ExcludedPaths []string `mapstructure:"excluded_paths"`
}

type CompressionMiddleware struct {
	options *Options
}

func NewMiddleware(options Options) *CompressionMiddleware {
	if options.Level == 0 {
		options.Level = compress.CompressDefaultCompression
	}

	return &CompressionMiddleware{
		options: &options,
	}
}

func (m *CompressionMiddleware) ServeHTTP(ctx context.Context, c *app.RequestContext) {
	if !m.shouldCompress(&c.Request) {
		c.Next(ctx)
		return
	}

	c.Next(ctx)

	if len(c.Response.Header.Peek(headerContentEncoding)) > 0 {
		return
	}

	body := c.Response.Body()
	if len(body) == 0 || len(body) < m.options.MinLength {
		return
	}

	gzipped := compress.AppendGzipBytesLevel(nil, body, m.options.Level)
	c.Response.Header.Set(headerContentEncoding, encodingGzip)
	c.Response.Header.Add(headerVary, headerAcceptEncoding)
	c.Response.SetBody(gzipped)
}

func (m *CompressionMiddleware) shouldCompress(req *protocol.Request) bool {
	accept := req.Header.Get(headerAcceptEncoding)
	if !strings.Contains(accept, encodingGzip) && strings.TrimSpace(accept) != "*" {
		return false
	}

	path := cast.B2S(req.URI().Path())
	for _, excluded := range m.options.ExcludedPaths {
		if strings.EqualFold(path, excluded) {
			return false
		}
	}

	return true
}

func Init() error {
	return middleware.RegisterTyped([]string{"compression"}, func(opts Options) (app.HandlerFunc, error) {
		return NewMiddleware(opts).ServeHTTP, nil
	})
}
