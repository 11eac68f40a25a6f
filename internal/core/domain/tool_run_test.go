// internal/core/domain/tool_run_test.go
package domain

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolRun_Lifecycle(t *testing.T) {
	run := NewToolRun("subfinder", PhaseEnumerating)
	assert.Equal(t, ToolStatusIdle, run.Status)

	now := time.Now()
	run.Start(now)
	assert.Equal(t, ToolStatusRunning, run.Status)

	art := NewArtifact("scan-1", PhaseEnumerating, "subfinder", "/tmp/x/subfinder.txt", SchemaLines)
	run.Complete(12, []Artifact{art}, now.Add(3*time.Second))

	assert.Equal(t, ToolState{Status: ToolStatusCompleted, Count: 12}, run.State())
	assert.Equal(t, 3*time.Second, run.Duration)
	assert.True(t, run.Status.IsTerminal())
}

func TestToolRun_FailResetsCount(t *testing.T) {
	run := NewToolRun("dnsx", PhaseResolving)
	run.Start(time.Now())
	run.Count = 5

	cause := NewToolError("dnsx", ToolErrorTimeout, errors.New("deadline"))
	run.Fail(cause, nil, time.Now())

	assert.Equal(t, ToolStatusFailed, run.Status)
	assert.Zero(t, run.Count)
	assert.True(t, IsToolError(run.Err, ToolErrorTimeout))
	assert.False(t, IsToolError(run.Err, ToolErrorExit))
	assert.True(t, IsToolError(run.Err, ""))
	assert.Contains(t, run.Err.Error(), "dnsx: timeout: deadline")
}

func TestArtifact_ExistsAndEmpty(t *testing.T) {
	dir := t.TempDir()

	missing := NewArtifact("s", PhaseMerging, "merge", filepath.Join(dir, "nope.txt"), SchemaLines)
	assert.False(t, missing.Exists())
	assert.True(t, missing.IsEmpty())

	emptyPath := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(emptyPath, nil, 0o644))
	empty := NewArtifact("s", PhaseMerging, "merge", emptyPath, SchemaLines)
	assert.True(t, empty.Exists())
	assert.True(t, empty.IsEmpty())

	fullPath := filepath.Join(dir, "subdomains.txt")
	require.NoError(t, os.WriteFile(fullPath, []byte("a.example.com\n"), 0o644))
	full := NewArtifact("s", PhaseMerging, "merge", fullPath, SchemaLines)
	assert.False(t, full.IsEmpty())
	assert.Equal(t, "subdomains.txt", full.Name())
	assert.Equal(t, "s/merging/merge", full.Key())
}
