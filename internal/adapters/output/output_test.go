// internal/adapters/output/output_test.go
package output

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
)

func testScan(t *testing.T) *domain.Scan {
	t.Helper()
	scan, err := domain.NewScan("example.com", 0)
	require.NoError(t, err)
	return scan
}

func sampleResults() []domain.ScoredResult {
	return []domain.ScoredResult{
		{URL: "https://admin.example.com", StatusCode: 403, Title: "Admin", ROIScore: 77, Screenshot: "s/admin.png"},
		{URL: "https://www.example.com", StatusCode: 200, Title: "Home", ROIScore: 20},
		{URL: "https://api.example.com", ROIScore: 10},
	}
}

func TestSanitizeDomainName(t *testing.T) {
	assert.Equal(t, "example_com", sanitizeDomainName("example.com"))
	assert.Equal(t, "a-b_example_com", sanitizeDomainName("a-b.example.com"))
	assert.Equal(t, "x_y", sanitizeDomainName("x/y"))
}

func TestJSONExporter_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.json")
	exp := NewJSONExporter(path)

	require.NoError(t, exp.Export(testScan(t), sampleResults()))
	assert.Equal(t, path, exp.Path())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []domain.ScoredResult
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, sampleResults(), got)
}

func TestJSONExporter_Directory(t *testing.T) {
	dir := t.TempDir()
	exp := NewJSONExporter(dir)
	exp.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }

	require.NoError(t, exp.Export(testScan(t), nil))
	assert.Equal(t, filepath.Join(dir, "domscout_example_com_20240301_123000.json"), exp.Path())

	data, err := os.ReadFile(exp.Path())
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))
}

func TestJSONExporter_Stdout(t *testing.T) {
	var buf bytes.Buffer
	exp := NewJSONExporter("-").WithWriter(&buf)

	require.NoError(t, exp.Export(testScan(t), sampleResults()[:1]))
	assert.Contains(t, buf.String(), `"roi_score": 77`)
	assert.Empty(t, exp.Path())
}

func TestTableExporter(t *testing.T) {
	var buf bytes.Buffer
	exp := NewTableExporter(&buf, 2)
	assert.Equal(t, "table", exp.Name())

	require.NoError(t, exp.Export(testScan(t), sampleResults()))
	out := buf.String()
	assert.Contains(t, out, "Top endpoints for example.com (3 scored)")
	assert.Contains(t, out, "https://admin.example.com")
	assert.Contains(t, out, "77")
	assert.NotContains(t, out, "https://api.example.com")
	assert.Contains(t, out, "1 more in scored_results.json")

	buf.Reset()
	require.NoError(t, exp.Export(testScan(t), nil))
	assert.Contains(t, buf.String(), "No scored endpoints.")
}

func TestToolStatusTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ToolStatusTable(&buf, map[string]domain.ToolState{
		"subfinder": {Status: domain.ToolStatusCompleted, Count: 12},
		"dnsx":      {Status: domain.ToolStatusFailed},
	}))
	out := buf.String()
	assert.Contains(t, out, "subfinder")
	assert.Contains(t, out, "completed")
	assert.Less(t, strings.Index(out, "dnsx"), strings.Index(out, "subfinder"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestEventLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "events.jsonl")
	log, err := OpenEventLog(path, nil)
	require.NoError(t, err)

	ctx := context.Background()
	log.Notify(ctx, ports.Event{Type: ports.EventPhaseChanged, ScanID: "s1", Phase: domain.PhaseProbing, Step: 4, Percent: 40})
	log.Notify(ctx, ports.Event{Type: ports.EventToolFinished, ScanID: "s1", Tool: "httpx", Status: domain.ToolStatusFailed,
		Duration: 1500 * time.Millisecond, Err: errors.New("exit status 1")})
	require.NoError(t, log.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []EventRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec EventRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		records = append(records, rec)
	}
	require.Len(t, records, 2)
	assert.Equal(t, "probing", records[0].Phase)
	assert.False(t, records[0].Timestamp.IsZero())
	assert.Equal(t, "httpx", records[1].Tool)
	assert.Equal(t, int64(1500), records[1].DurationMS)
	assert.Equal(t, "exit status 1", records[1].Error)
}
