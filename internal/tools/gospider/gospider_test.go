// internal/tools/gospider/gospider_test.go
package gospider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/testutil"
)

func TestScopeFilter(t *testing.T) {
	filter := ScopeFilter("example.com")

	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"https://a.example.com/api/v1", "https://a.example.com/api/v1", true},
		{"[href] - https://example.com/login", "https://example.com/login", true},
		{"[javascript] - https://cdn.other.com/app.js", "", false},
		{"[form] - /relative/path", "", false},
		{"https://notexample.com/", "", false},
	}
	for _, tt := range tests {
		got, ok := filter(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.line)
		}
	}
}

func TestGospider_Invoke(t *testing.T) {
	bin := testutil.FakeBinary(t, "gospider", `printf '[url] - [code-200] - https://a.example.com/\nhttps://a.example.com/admin\nhttps://evil.com/x\n'`)
	cfg := ports.DefaultToolConfig()
	cfg.ExecPath = bin

	in := ports.ToolInput{ScanID: "scan-1", Target: "example.com", WorkDir: t.TempDir()}
	require.NoError(t, testutil.WriteLines(in.Path(domain.FileAliveServices), "https://a.example.com"))

	tool := New(nil, cfg, 0, 0)
	assert.Equal(t, []string{domain.FileAliveServices}, tool.RequiredInputs())

	out, err := tool.Invoke(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com/", "https://a.example.com/admin"}, out.Results)
	assert.Equal(t, []string{"-S", in.Path(domain.FileAliveServices), "-c", "10", "-d", "1", "--quiet"}, testutil.BinaryArgs(t, bin))
}
