// internal/tools/httpx/httpx_test.go
package httpx

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/testutil"
)

const sampleJSONL = `{"url":"https://a.example.com/admin","input":"a.example.com","title":"Admin","status_code":403,"content_length":512,"webserver":"nginx","tech":["Nginx"],"header":{"content_security_policy":"default-src 'self'","x_frame_options":"DENY"}}
not json
{"url":"http://b.example.com","status_code":"200","webserver":["Apache","PHP"],"content_length":null}
{"url":"","status_code":200}
{"url":"https://c.example.com","status_code":502,"failed":true}`

func TestFlexibleInt_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "number", input: `200`, want: 200},
		{name: "numeric string", input: `"404"`, want: 404},
		{name: "empty string", input: `""`, want: 0},
		{name: "null", input: `null`, want: 0},
		{name: "garbage", input: `"abc"`, wantErr: true},
		{name: "object", input: `{}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fi FlexibleInt
			err := json.Unmarshal([]byte(tt.input), &fi)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, fi.Int())
		})
	}
}

func TestFlexibleString_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`null`, ""},
		{`"nginx"`, "nginx"},
		{`["Apache","PHP"]`, "Apache, PHP"},
		{`[]`, ""},
	}
	for _, tt := range tests {
		var fs FlexibleString
		require.NoError(t, json.Unmarshal([]byte(tt.input), &fs), tt.input)
		assert.Equal(t, tt.want, fs.String(), tt.input)
	}

	var fs FlexibleString
	assert.Error(t, json.Unmarshal([]byte(`42`), &fs))
}

func TestParseFile(t *testing.T) {
	path := t.TempDir() + "/httpx_output.json"
	require.NoError(t, os.WriteFile(path, []byte(sampleJSONL), 0o644))

	records, err := ParseFile(path, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"https://a.example.com/admin", "http://b.example.com"}, URLs(records))

	endpoints := Endpoints(records)
	admin := endpoints[0]
	assert.Equal(t, 403, admin.StatusCode)
	assert.Equal(t, "Admin", admin.Title)
	assert.Equal(t, "nginx", admin.Webserver)
	assert.Equal(t, 512, admin.ContentLength)
	assert.Equal(t, []string{"Nginx"}, admin.Technologies)
	csp, ok := admin.Header("Content-Security-Policy")
	assert.True(t, ok)
	assert.Equal(t, "default-src 'self'", csp)
	_, ok = admin.Header("x-frame-options")
	assert.True(t, ok)

	assert.Equal(t, 200, endpoints[1].StatusCode)
	assert.Equal(t, "Apache, PHP", endpoints[1].Webserver)
	assert.Zero(t, endpoints[1].ContentLength)
}

func TestParseFile_Missing(t *testing.T) {
	records, err := ParseFile(t.TempDir()+"/nope.json", nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHTTPX_Invoke(t *testing.T) {
	body := `cat > /dev/null
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; fi
  shift
done
cat > "$out" <<'JSONL'
` + sampleJSONL + `
JSONL`
	bin := testutil.FakeBinary(t, "httpx-toolkit", body)
	cfg := ports.DefaultToolConfig()
	cfg.ExecPath = bin

	in := ports.ToolInput{ScanID: "scan-1", Target: "example.com", WorkDir: t.TempDir(), RateLimit: 50}
	require.NoError(t, testutil.WriteLines(in.Path(domain.FileLiveSubdomains), "a.example.com", "b.example.com"))

	tool := New(nil, cfg, false, 0)
	assert.Equal(t, []string{domain.FileLiveSubdomains}, tool.RequiredInputs())

	out, err := tool.Invoke(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, []string{"https://a.example.com/admin", "http://b.example.com"}, out.Results)
	require.Len(t, out.Artifacts, 2)
	assert.Equal(t, domain.SchemaJSONL, out.Artifacts[0].Schema)
	assert.Equal(t, domain.FileAliveServices, out.Artifacts[1].Name())
	assert.Equal(t, "https://a.example.com/admin\nhttp://b.example.com\n", testutil.ReadFile(in.Path(domain.FileAliveServices)))

	assert.Equal(t, []string{"-rl", "50", "-silent", "-status-code", "-json", "-o", in.Path(domain.FileHTTPXOutput)},
		testutil.BinaryArgs(t, bin))

	endpoints, err := tool.Endpoints(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, endpoints, 2)
}

func TestHTTPX_BuildArgs(t *testing.T) {
	tool := New(nil, ports.DefaultToolConfig(), true, 25)
	args := tool.buildArgs(0, "out.json")
	assert.Equal(t, []string{"-rl", "150", "-silent", "-status-code", "-json", "-o", "out.json", "-threads", "25", "-include-response-header"}, args)
}

func TestHeaderName(t *testing.T) {
	assert.Equal(t, "content-security-policy", HeaderName("Content_Security_Policy"))
	assert.Equal(t, "server", HeaderName("server"))
}
