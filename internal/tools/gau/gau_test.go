// internal/tools/gau/gau_test.go
package gau

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/testutil"
)

func TestGAU_InvokeReadsHostsFromStdin(t *testing.T) {
	// el script convierte cada host de stdin en una URL
	body := `out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "--o" ]; then out="$2"; fi
  shift
done
while read -r host; do echo "https://$host/login"; done > "$out"`
	bin := testutil.FakeBinary(t, "gau", body)
	cfg := ports.DefaultToolConfig()
	cfg.ExecPath = bin

	in := ports.ToolInput{ScanID: "scan-1", Target: "example.com", WorkDir: t.TempDir()}
	require.NoError(t, testutil.WriteLines(in.Path(domain.FileLiveSubdomains), "a.example.com", "b.example.com"))

	tool := New(nil, cfg, 0, nil)
	assert.Equal(t, []string{domain.FileLiveSubdomains}, tool.RequiredInputs())

	out, err := tool.Invoke(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com/login", "https://b.example.com/login"}, out.Results)
	assert.Equal(t, []string{"--subs", "--o", in.Path(outputFile)}, testutil.BinaryArgs(t, bin))
}

func TestGAU_BuildArgs(t *testing.T) {
	tool := New(nil, ports.DefaultToolConfig(), 5, []string{"png", "css"})
	assert.Equal(t, []string{"--subs", "--threads", "5", "--blacklist", "png,css", "--o", "gau.txt"}, tool.buildArgs("gau.txt"))
}
