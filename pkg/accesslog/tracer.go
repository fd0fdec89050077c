package accesslog

import (
	"context"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/tracer/stats"
	"github.com/nite-coder/blackbear/pkg/cast"
	"github.com/nite-coder/ccipgate/pkg/config"
	"github.com/nite-coder/ccipgate/pkg/variable"
)

const (
	Time         = "$time"
	Duration     = "$duration"
	RemoteAddr   = "$remote_addr"
	RequestURI   = "$request_uri"
	RequestBody  = "$request_body"
	ReceivedSize = "$received_size"
	SendSize     = "$send_size"
)

// Tracer is a hertz tracer that writes one templated line per finished request.
type Tracer struct {
	opts      config.AccessLogOptions
	template  string
	matchVars []string
	writer    *BufferedWriter
}

func NewTracer(opts config.AccessLogOptions) (*Tracer, error) {
	if opts.TimeFormat == "" {
		opts.TimeFormat = time.RFC3339
	}

	if opts.Flush <= 0 {
		opts.Flush = time.Second
	}

	writer, err := NewBufferedWriter(opts)
	if err != nil {
		return nil, err
	}

	template := strings.Join(strings.Fields(opts.Template), " ") + "\n"

	return &Tracer{
		opts:      opts,
		template:  template,
		matchVars: parseVariables(template),
		writer:    writer,
	}, nil
}

func (t *Tracer) Start(ctx context.Context, c *app.RequestContext) context.Context {
	return ctx
}

func (t *Tracer) Finish(ctx context.Context, c *app.RequestContext) {
	start := time.Now()

	if info := c.GetTraceInfo(); info != nil {
		if httpStart := info.Stats().GetEvent(stats.HTTPStart); httpStart != nil {
			start = httpStart.Time()
		}
	}

	replacer := strings.NewReplacer(t.buildReplacer(c, start)...)
	t.writer.WriteString(replacer.Replace(t.template))
}

// Close flushes pending lines and releases the output file.
func (t *Tracer) Close() error {
	return t.writer.Close()
}

func (t *Tracer) buildReplacer(c *app.RequestContext, start time.Time) []string {
	replacements := make([]string, 0, len(t.matchVars)*2)

	for _, matchVal := range t.matchVars {
		switch matchVal {
		case Time:
			replacements = append(replacements, Time, start.Format(t.opts.TimeFormat))
		case Duration:
			dur := time.Since(start).Microseconds()
			replacements = append(replacements, Duration, strconv.FormatFloat(float64(dur)/1e6, 'f', -1, 64))
		case RemoteAddr:
			var ip string
			switch addr := c.RemoteAddr().(type) {
			case *net.TCPAddr:
				ip = addr.IP.String()
			case *net.UDPAddr:
				ip = addr.IP.String()
			}
			replacements = append(replacements, RemoteAddr, ip)
		case RequestURI:
			uri := cast.B2S(c.Request.Path())
			if qs := c.Request.QueryString(); len(qs) > 0 {
				uri += "?" + string(qs)
			}
			replacements = append(replacements, RequestURI, escape(uri, t.opts.Escape))
		case RequestBody:
			replacements = append(replacements, RequestBody, escape(string(c.Request.Body()), t.opts.Escape))
		case ReceivedSize, SendSize:
			size := 0
			if info := c.GetTraceInfo(); info != nil {
				if matchVal == ReceivedSize {
					size = info.Stats().RecvSize()
				} else {
					size = info.Stats().SendSize()
				}
			}
			replacements = append(replacements, matchVal, strconv.Itoa(size))
		default:
			if variable.IsDirective(matchVal) {
				val := escape(variable.GetString(matchVal, c), t.opts.Escape)
				replacements = append(replacements, matchVal, val)
				continue
			}

			slog.Debug("accesslog: unknown directive", "directive", matchVal)
			replacements = append(replacements, matchVal, matchVal)
		}
	}

	return replacements
}

func escape(s string, escapeType config.EscapeType) string {
	if len(s) == 0 {
		return s
	}

	switch escapeType {
	case config.DefaultEscape:
		return escapeString(s)
	case config.JSONEscape:
		return escapeJSON(s)
	}

	return s
}

// escapeString replaces quotes, backslashes and non printable bytes with \xNN.
func escapeString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if c == '"' || c == '\\' || c < 32 || c > 126 {
			b.WriteString(`\x`)
			b.WriteString(strconv.FormatUint(uint64(c), 16))
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		b.WriteRune(r)
		i += size
	}
	return b.String()
}

func escapeJSON(s string) string {
	b, err := sonic.MarshalString(s)
	if err != nil || len(b) < 2 {
		return s
	}
	return b[1 : len(b)-1]
}

type byLengthAndContent []string

func (s byLengthAndContent) Len() int {
	return len(s)
}

func (s byLengthAndContent) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

func (s byLengthAndContent) Less(i, j int) bool {
	if len(s[i]) == len(s[j]) {
		return s[i] < s[j]
	}
	return len(s[i]) > len(s[j])
}

// parseVariables returns the distinct directives of a template, longest first so that
// "$request_uri" is replaced before a shorter directive sharing its prefix.
func parseVariables(template string) []string {
	seen := map[string]struct{}{}
	var result []string

	for i := 0; i < len(template); i++ {
		if template[i] != '$' {
			continue
		}

		j := i + 1
		for j < len(template) && isVariableChar(template[j]) {
			j++
		}

		name := strings.TrimRight(template[i:j], ".")
		if len(name) > 1 {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				result = append(result, name)
			}
		}
		i = j - 1
	}

	sort.Sort(byLengthAndContent(result))
	return result
}

func isVariableChar(b byte) bool {
	return b == '_' || b == '.' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
