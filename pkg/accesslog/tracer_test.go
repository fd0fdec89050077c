package accesslog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/nite-coder/ccipgate/pkg/config"
	"github.com/nite-coder/ccipgate/pkg/variable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracerFinish(t *testing.T) {
	output := filepath.Join(t.TempDir(), "access.log")

	tracer, err := NewTracer(config.AccessLogOptions{
		Output: output,
		Template: `$request_method   $request_uri $status
			$lookup_result "$header_user_agent" $unknown_thing`,
		Escape: config.DefaultEscape,
	})
	require.NoError(t, err)

	hzCtx := app.NewContext(0)
	hzCtx.Request.SetRequestURI("/lookup/0x1/0x2?x=1")
	hzCtx.Request.SetMethod("GET")
	hzCtx.Request.Header.SetUserAgentBytes([]byte("agent"))
	hzCtx.Response.SetStatusCode(404)
	hzCtx.Set(variable.LookupResult, "not_found")

	ctx := tracer.Start(context.Background(), hzCtx)
	tracer.Finish(ctx, hzCtx)
	require.NoError(t, tracer.Close())
	require.NoError(t, tracer.Close())

	b, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "GET /lookup/0x1/0x2?x=1 404 not_found \"agent\" $unknown_thing\n", string(b))
}

func TestBufferedWriter(t *testing.T) {
	output := filepath.Join(t.TempDir(), "buffered.log")

	w, err := NewBufferedWriter(config.AccessLogOptions{Output: output, BufferSize: 1024})
	require.NoError(t, err)

	w.WriteString("first\n")
	b, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Empty(t, b)

	require.NoError(t, w.Flush())
	b, err = os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(b))

	require.NoError(t, w.Close())
	w.WriteString("dropped\n")

	discard, err := NewBufferedWriter(config.AccessLogOptions{})
	require.NoError(t, err)
	discard.WriteString("nothing")
	assert.NoError(t, discard.Close())

	_, err = NewBufferedWriter(config.AccessLogOptions{Output: filepath.Join(t.TempDir(), "missing", "a.log")})
	assert.Error(t, err)
}

func TestParseVariables(t *testing.T) {
	vars := parseVariables("$status $request_uri $var.user. $status $")
	assert.Equal(t, []string{"$request_uri", "$var.user", "$status"}, vars)
}

func TestEscape(t *testing.T) {
	content := `{"label": "hello 您好 ~"}`

	tests := []struct {
		name       string
		input      string
		escapeType config.EscapeType
		expected   string
	}{
		{"empty string", "", config.DefaultEscape, ""},
		{"default escape", "hello 您好", config.DefaultEscape, `hello \xe6\x82\xa8\xe5\xa5\xbd`},
		{"json escape", `say "hi"`, config.JSONEscape, `say \"hi\"`},
		{"none escape", content, config.NoneEscape, content},
		{"unset escape", content, "", content},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, escape(tt.input, tt.escapeType))
		})
	}
}
