package iprestriction

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/nite-coder/ccipgate/pkg/middleware"
)

const defaultRejectedBody = `{"error":"forbidden","details":"client ip is not allowed"}`

// Options accepts either an allow list or a deny list of addresses and CIDR ranges.
type Options struct {
	Allow                    []string `mapstructure:"allow"`
	Deny                     []string `mapstructure:"deny"`
	RejectedHTTPStatusCode   int      `mapstructure:"rejected_http_status_code"`
	RejectedHTTPContentType  string   `mapstructure:"rejected_http_content_type"`
	RejectedHTTPResponseBody string   `mapstructure:"rejected_http_response_body"`
}

type IPRestriction struct {
	options  *Options
	prefixes []netip.Prefix
	allow    bool
}

func NewMiddleware(options Options) (*IPRestriction, error) {
	if len(options.Allow) == 0 && len(options.Deny) == 0 {
		return nil, errors.New("allow and deny cannot be empty")
	} else if len(options.Allow) > 0 && len(options.Deny) > 0 {
		return nil, errors.New("allow and deny cannot be set at the same time")
	}

	if options.RejectedHTTPStatusCode == 0 {
		options.RejectedHTTPStatusCode = http.StatusForbidden
	}
	if options.RejectedHTTPContentType == "" {
		options.RejectedHTTPContentType = "application/json"
	}
	if options.RejectedHTTPResponseBody == "" {
		options.RejectedHTTPResponseBody = defaultRejectedBody
	}

	m := &IPRestriction{
		options: &options,
		allow:   len(options.Allow) > 0,
	}

	list := options.Deny
	if m.allow {
		list = options.Allow
	}

	for _, entry := range list {
		prefix, err := parsePrefix(entry)
		if err != nil {
			return nil, err
		}
		m.prefixes = append(m.prefixes, prefix)
	}

	return m, nil
}

func (m *IPRestriction) ServeHTTP(ctx context.Context, c *app.RequestContext) {
	if m.matches(c.ClientIP()) != m.allow {
		c.SetStatusCode(m.options.RejectedHTTPStatusCode)
		c.SetContentType(m.options.RejectedHTTPContentType)
		c.SetBodyString(m.options.RejectedHTTPResponseBody)
		c.Abort()
		return
	}

	c.Next(ctx)
}

func (m *IPRestriction) matches(clientIP string) bool {
	addr, err := netip.ParseAddr(clientIP)
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	for _, prefix := range m.prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// parsePrefix accepts "10.0.0.0/8" as well as a bare address.
func parsePrefix(entry string) (netip.Prefix, error) {
	entry = strings.TrimSpace(entry)

	if strings.Contains(entry, "/") {
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("ip_restriction: invalid cidr '%s': %w", entry, err)
		}
		return prefix.Masked(), nil
	}

	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("ip_restriction: invalid ip '%s': %w", entry, err)
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func Init() error {
	return middleware.RegisterTyped([]string{"ip_restriction"}, func(option Options) (app.HandlerFunc, error) {
		m, err := NewMiddleware(option)
		if err != nil {
			return nil, err
		}
		return m.ServeHTTP, nil
	})
}
