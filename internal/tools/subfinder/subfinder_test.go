// internal/tools/subfinder/subfinder_test.go
package subfinder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/logx"
	"domscout/internal/platform/registry"
	"domscout/internal/testutil"
)

func TestSubfinder_Invoke(t *testing.T) {
	bin := testutil.FakeBinary(t, "subfinder", testutil.OutputFlagScript("-o", "a.example.com\\n\\nb.example.com\\n"))
	cfg := ports.DefaultToolConfig()
	cfg.ExecPath = bin

	tool := New(logx.NewNop(), cfg, true, 0)
	in := ports.ToolInput{ScanID: "scan-1", Target: "example.com", WorkDir: t.TempDir()}

	out, err := tool.Invoke(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, out.Results)
	require.Len(t, out.Artifacts, 1)
	assert.Equal(t, "subfinder.txt", out.Artifacts[0].Name())

	assert.Equal(t, []string{"-d", "example.com", "-all", "-silent", "-o", in.Path(outputFile)}, testutil.BinaryArgs(t, bin))
}

func TestSubfinder_BuildArgs(t *testing.T) {
	tool := New(nil, ports.DefaultToolConfig(), false, 20)
	assert.Equal(t, []string{"-d", "example.com", "-t", "20", "-silent", "-o", "out.txt"}, tool.buildArgs("example.com", "out.txt"))
}

func TestSubfinder_Registered(t *testing.T) {
	meta, ok := registry.Global().GetMetadata(toolName)
	require.True(t, ok)
	assert.Equal(t, domain.PhaseEnumerating, meta.Stage)
	assert.Equal(t, outputFile, meta.Output)

	tool, err := registry.Global().Build(toolName, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, toolName, tool.Name())
	assert.Equal(t, domain.PhaseEnumerating, tool.Stage())
}
