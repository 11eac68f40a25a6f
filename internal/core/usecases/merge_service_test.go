// internal/core/usecases/merge_service_test.go
package usecases

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/logx"
	"domscout/internal/testutil"
)

func TestMergeService_Merge(t *testing.T) {
	svc := NewMergeService(logx.NewNop())

	t.Run("dedupes and sorts", func(t *testing.T) {
		got := svc.Merge(
			[]string{"a.example.com", "b.example.com"},
			[]string{"B.example.com"},
			[]string{"a.example.com", "c.example.com"},
		)
		// el caso se conserva literal: B y b son entradas distintas
		assert.Equal(t, []string{"B.example.com", "a.example.com", "b.example.com", "c.example.com"}, got)
	})

	t.Run("trims and drops blanks", func(t *testing.T) {
		got := svc.Merge([]string{"  x.example.com ", "", "   ", "\tx.example.com"})
		assert.Equal(t, []string{"x.example.com"}, got)
	})

	t.Run("empty input", func(t *testing.T) {
		got := svc.Merge()
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("order independent", func(t *testing.T) {
		a := []string{"z", "y", "x", "y"}
		b := []string{"w", "x"}
		assert.Equal(t, svc.Merge(a, b), svc.Merge(b, a))
	})
}

func TestMergeService_MergeFiles(t *testing.T) {
	dir := t.TempDir()
	svc := NewMergeService(logx.NewNop())

	one := filepath.Join(dir, "one.txt")
	two := filepath.Join(dir, "two.txt")
	require.NoError(t, testutil.WriteLines(one, "b.example.com", "", "a.example.com"))
	require.NoError(t, testutil.WriteLines(two, " a.example.com", "c.example.com", "c.example.com"))

	out := filepath.Join(dir, "merged", "subdomains.txt")
	got, err := svc.MergeFiles([]string{one, filepath.Join(dir, "missing.txt"), two}, out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example.com", "b.example.com", "c.example.com"}, got)

	first, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "a.example.com\nb.example.com\nc.example.com\n", string(first))

	// misma entrada en otro orden produce el mismo archivo byte a byte
	_, err = svc.MergeFiles([]string{two, one}, out)
	require.NoError(t, err)
	second, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMergeService_MergeFilesAllMissing(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "subdomains.txt")

	got, err := NewMergeService(nil).MergeFiles([]string{filepath.Join(dir, "nope.txt")}, out)
	require.NoError(t, err)
	assert.Empty(t, got)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestMergeService_MergeFilesKeepsLinesBeforeReadError(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.txt")
	huge := strings.Repeat("x", 10*1024*1024+1)
	require.NoError(t, os.WriteFile(broken, []byte("b.example.com\na.example.com\n"+huge+"\nz.example.com\n"), 0o644))
	other := filepath.Join(dir, "other.txt")
	require.NoError(t, testutil.WriteLines(other, "c.example.com"))

	got, err := NewMergeService(logx.NewNop()).MergeFiles([]string{broken, other}, filepath.Join(dir, "subdomains.txt"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example.com", "b.example.com", "c.example.com"}, got)
}

func TestMergeTool_Invoke(t *testing.T) {
	dir := t.TempDir()
	in := ports.ToolInput{ScanID: "scan-1", Target: "example.com", WorkDir: dir}

	require.NoError(t, testutil.WriteLines(in.Path("subfinder.txt"), "a.example.com", "b.example.com"))
	require.NoError(t, testutil.WriteLines(in.Path("crtsh.txt"), "b.example.com", "c.example.com"))

	tool := NewSubdomainMergeTool([]string{"subfinder", "findomain", "crtsh"}, NewMergeService(nil))
	assert.Equal(t, ToolMerge, tool.Name())
	assert.Equal(t, domain.PhaseMerging, tool.Stage())
	assert.Equal(t, []string{"subfinder.txt", "findomain.txt", "crtsh.txt"}, tool.Inputs())

	out, err := tool.Invoke(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Count)
	assert.Equal(t, []string{"a.example.com", "b.example.com", "c.example.com"}, out.Results)
	require.Len(t, out.Artifacts, 1)
	assert.Equal(t, domain.FileSubdomains, out.Artifacts[0].Name())
	assert.Equal(t, "a.example.com\nb.example.com\nc.example.com\n", testutil.ReadFile(in.Path(domain.FileSubdomains)))
}

func TestMergeTool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tool := NewURLMergeTool([]string{"gau"}, NewMergeService(nil))
	_, err := tool.Invoke(ctx, ports.ToolInput{WorkDir: t.TempDir()})
	require.Error(t, err)
	assert.True(t, domain.IsToolError(err, domain.ToolErrorLaunch))
}
