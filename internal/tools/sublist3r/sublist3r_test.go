// internal/tools/sublist3r/sublist3r_test.go
package sublist3r

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domscout/internal/core/ports"
	"domscout/internal/testutil"
)

func TestSublist3r_Invoke(t *testing.T) {
	bin := testutil.FakeBinary(t, "sublist3r", testutil.OutputFlagScript("-o", "www.example.com\\n"))
	cfg := ports.DefaultToolConfig()
	cfg.ExecPath = bin

	in := ports.ToolInput{ScanID: "scan-1", Target: "example.com", WorkDir: t.TempDir()}
	out, err := New(nil, cfg, 0).Invoke(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 1, out.Count)
	assert.Equal(t, []string{"-d", "example.com", "-t", "50", "-o", in.Path(outputFile)}, testutil.BinaryArgs(t, bin))
}

func TestSublist3r_NoResultsIsNotAnError(t *testing.T) {
	bin := testutil.FakeBinary(t, "sublist3r", "exit 0")
	cfg := ports.DefaultToolConfig()
	cfg.ExecPath = bin

	in := ports.ToolInput{ScanID: "scan-1", Target: "example.com", WorkDir: t.TempDir()}
	out, err := New(nil, cfg, 10).Invoke(context.Background(), in)
	require.NoError(t, err)
	assert.Zero(t, out.Count)
}
