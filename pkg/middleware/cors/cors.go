package cors

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/nite-coder/blackbear/pkg/cast"
	"github.com/nite-coder/ccipgate/pkg/middleware"
)

// Options of the cors middleware. Browsers call the lookup endpoint directly during
// off-chain resolution, so wallets served from any origin need a preflight answer.
type Options struct {
	AllowOrigins     []string      `mapstructure:"allow_origins"`
	AllowMethods     []string      `mapstructure:"allow_methods"`
	AllowHeaders     []string      `mapstructure:"allow_headers"`
	ExposeHeaders    []string      `mapstructure:"expose_headers"`
	MaxAge           time.Duration `mapstructure:"max_age"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
}

func DefaultOptions() Options {
	return Options{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Length", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
}

type CorsMiddleware struct {
	allowAll      bool
	origins       map[string]struct{}
	allowMethods  string
	allowHeaders  string
	exposeHeaders string
	maxAge        string
	credentials   bool
}

func NewMiddleware(options Options) (*CorsMiddleware, error) {
	defaults := DefaultOptions()

	if len(options.AllowOrigins) == 0 {
		options.AllowOrigins = defaults.AllowOrigins
	}
	if len(options.AllowMethods) == 0 {
		options.AllowMethods = defaults.AllowMethods
	}
	if len(options.AllowHeaders) == 0 {
		options.AllowHeaders = defaults.AllowHeaders
	}
	if options.MaxAge == 0 {
		options.MaxAge = defaults.MaxAge
	}

	m := &CorsMiddleware{
		origins:       make(map[string]struct{}, len(options.AllowOrigins)),
		allowMethods:  strings.ToUpper(strings.Join(options.AllowMethods, ",")),
		allowHeaders:  strings.Join(options.AllowHeaders, ","),
		exposeHeaders: strings.Join(options.ExposeHeaders, ","),
		maxAge:        strconv.FormatInt(int64(options.MaxAge/time.Second), 10),
		credentials:   options.AllowCredentials,
	}

	for _, origin := range options.AllowOrigins {
		if origin == "*" {
			m.allowAll = true
			continue
		}
		m.origins[strings.ToLower(origin)] = struct{}{}
	}

	if m.allowAll && m.credentials {
		return nil, errors.New("allow_credentials can't be used with wildcard origin")
	}

	return m, nil
}

func (m *CorsMiddleware) ServeHTTP(ctx context.Context, c *app.RequestContext) {
	origin := cast.B2S(c.Request.Header.Peek("Origin"))
	if origin == "" {
		c.Next(ctx)
		return
	}

	if !m.allowed(origin) {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	if m.allowAll {
		c.Response.Header.Set("Access-Control-Allow-Origin", "*")
	} else {
		c.Response.Header.Set("Access-Control-Allow-Origin", origin)
		c.Response.Header.Add("Vary", "Origin")
	}

	if m.credentials {
		c.Response.Header.Set("Access-Control-Allow-Credentials", "true")
	}

	if string(c.Request.Method()) == http.MethodOptions && len(c.Request.Header.Peek("Access-Control-Request-Method")) > 0 {
		c.Response.Header.Set("Access-Control-Allow-Methods", m.allowMethods)
		c.Response.Header.Set("Access-Control-Allow-Headers", m.allowHeaders)
		c.Response.Header.Set("Access-Control-Max-Age", m.maxAge)
		c.AbortWithStatus(http.StatusNoContent)
		return
	}

	if m.exposeHeaders != "" {
		c.Response.Header.Set("Access-Control-Expose-Headers", m.exposeHeaders)
	}

	c.Next(ctx)
}

func (m *CorsMiddleware) allowed(origin string) bool {
	if m.allowAll {
		return true
	}
	_, found := m.origins[strings.ToLower(origin)]
	return found
}

func Init() error {
	return middleware.RegisterTyped([]string{"cors"}, func(options Options) (app.HandlerFunc, error) {
		m, err := NewMiddleware(options)
		if err != nil {
			return nil, err
		}
		return m.ServeHTTP, nil
	})
}
