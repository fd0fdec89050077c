package variable

import (
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/nite-coder/blackbear/pkg/cast"
)

var directives = map[string]struct{}{
	ClientIP:      {},
	Host:          {},
	RequestMethod: {},
	RequestPath:   {},
	RequestID:     {},
	UserAgent:     {},
	TraceID:       {},
	Status:        {},
	LookupResult:  {},
	Allow:         {},
}

// Get resolves a directive against the request. `$var.<key>` reads a value stored on the
// request context and `$header_<name>` reads a request header.
func Get(key string, c *app.RequestContext) (val any, found bool) {
	key = strings.ToLower(strings.TrimSpace(key))

	if key == "" || key[0] != '$' || c == nil {
		return nil, false
	}

	if strings.HasPrefix(key, varPrefix) {
		return c.Get(key[len(varPrefix):])
	}

	if strings.HasPrefix(key, headerPrefix) {
		name := strings.ReplaceAll(key[len(headerPrefix):], "_", "-")
		v := c.Request.Header.Peek(name)
		if v == nil {
			return nil, false
		}
		return string(v), true
	}

	return directive(key, c)
}

func GetString(key string, c *app.RequestContext) string {
	val, found := Get(key, c)
	if !found {
		return ""
	}
	result, _ := cast.ToString(val)
	return result
}

func GetBool(key string, c *app.RequestContext) bool {
	val, found := Get(key, c)
	if !found {
		return false
	}
	b, _ := val.(bool)
	return b
}

// IsDirective reports whether key can be resolved by Get.
func IsDirective(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	switch {
	case strings.HasPrefix(key, varPrefix):
		return len(key) > len(varPrefix)
	case strings.HasPrefix(key, headerPrefix):
		return len(key) > len(headerPrefix)
	}
	_, found := directives[key]
	return found
}

// ParseDirectives returns the directives referenced in a template such as
// "$client_ip:$header_x_api_key", in order of appearance.
func ParseDirectives(template string) []string {
	var result []string

	for i := 0; i < len(template); i++ {
		if template[i] != '$' {
			continue
		}

		j := i + 1
		for j < len(template) && isDirectiveChar(template[j]) {
			j++
		}

		if name := template[i:j]; IsDirective(name) {
			result = append(result, name)
		}
		i = j - 1
	}

	return result
}

func isDirectiveChar(b byte) bool {
	return b == '_' || b == '.' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func directive(key string, c *app.RequestContext) (val any, found bool) {
	switch key {
	case ClientIP:
		return c.ClientIP(), true
	case Host:
		return string(c.Request.Host()), true
	case RequestMethod:
		return string(c.Request.Method()), true
	case RequestPath:
		return string(c.Request.Path()), true
	case UserAgent:
		return string(c.Request.Header.UserAgent()), true
	case Status:
		return c.Response.StatusCode(), true
	case RequestID, TraceID, LookupResult, Allow:
		return c.Get(key)
	}
	return nil, false
}
