// internal/adapters/storage/sqlite/sqlite_test.go
package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domscout/internal/core/domain"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "domscout.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_ScanLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	scan, err := domain.NewScan("example.com", 0)
	require.NoError(t, err)
	require.NoError(t, s.CreateScan(ctx, scan))

	got, err := s.GetScan(ctx, scan.ID)
	require.NoError(t, err)
	assert.Equal(t, "example.com", got.Domain)
	assert.Equal(t, domain.DefaultRateLimit, got.RateLimit)
	assert.Equal(t, scan.Status, got.Status)
	assert.True(t, got.CreatedAt.Equal(scan.CreatedAt))
	assert.Nil(t, got.StartedAt)

	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	done := started.Add(90 * time.Second)
	scan.Status = domain.ScanStatusCompleted
	scan.StartedAt = &started
	scan.CompletedAt = &done
	scan.DurationS = 90
	require.NoError(t, s.UpdateScan(ctx, scan))

	got, err = s.GetScan(ctx, scan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScanStatusCompleted, got.Status)
	require.NotNil(t, got.StartedAt)
	assert.True(t, got.StartedAt.Equal(started))
	assert.True(t, got.CompletedAt.Equal(done))
	assert.Equal(t, 90.0, got.DurationS)

	require.NoError(t, s.ReplaceSubdomains(ctx, scan.ID, []string{"a.example.com", "b.example.com"}))
	require.NoError(t, s.ReplaceURLs(ctx, scan.ID, []*domain.EndpointRecord{
		{URL: "https://a.example.com", ROIScore: 60, Technologies: []string{"nginx"}, Headers: map[string]string{"server": "nginx"}},
		nil,
		{URL: "https://b.example.com", ROIScore: 90, StatusCode: 403, Title: "Admin"},
	}))
	require.NoError(t, s.ReplaceScreenshots(ctx, scan.ID, []domain.Screenshot{
		{URL: "https://a.example.com", Filename: scan.ID + "/a.png", StatusCode: 200, Headers: map[string]string{"server": "nginx"}},
	}))

	subs, err := s.ListSubdomains(ctx, scan.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, subs)

	urls, err := s.ListURLs(ctx, scan.ID)
	require.NoError(t, err)
	require.Len(t, urls, 2)
	assert.Equal(t, "https://b.example.com", urls[0].URL)
	assert.Equal(t, 403, urls[0].StatusCode)
	assert.True(t, urls[0].IsScored())
	assert.Equal(t, []string{"nginx"}, urls[1].Technologies)
	v, ok := urls[1].Header("Server")
	assert.True(t, ok)
	assert.Equal(t, "nginx", v)

	shots, err := s.ListScreenshots(ctx, scan.ID)
	require.NoError(t, err)
	require.Len(t, shots, 1)
	assert.Equal(t, scan.ID+"/a.png", shots[0].Filename)
	assert.Equal(t, "nginx", shots[0].Headers["server"])

	stats, err := s.Stats(ctx, scan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScanStats{Subdomains: 2, AliveURLs: 2, Screenshots: 1}, stats)

	list, err := s.ListScans(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].SubdomainsCount)
	assert.Equal(t, 2, list[0].URLsCount)

	require.NoError(t, s.DeleteScan(ctx, scan.ID))
	_, err = s.GetScan(ctx, scan.ID)
	assert.ErrorIs(t, err, domain.ErrScanNotFound)
	assert.ErrorIs(t, s.UpdateScan(ctx, scan), domain.ErrScanNotFound)

	stats, err = s.Stats(ctx, scan.ID)
	require.NoError(t, err)
	assert.Zero(t, stats)
}

func TestStore_ReplaceDoesNotDuplicate(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	scan, err := domain.NewScan("example.com", 0)
	require.NoError(t, err)
	require.NoError(t, s.CreateScan(ctx, scan))

	for i := 0; i < 3; i++ {
		require.NoError(t, s.ReplaceSubdomains(ctx, scan.ID, []string{"a.example.com", "a.example.com", "b.example.com"}))
	}
	subs, err := s.ListSubdomains(ctx, scan.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, subs)

	require.NoError(t, s.ReplaceSubdomains(ctx, scan.ID, nil))
	subs, err = s.ListSubdomains(ctx, scan.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)
	assert.NotNil(t, subs)
}

func TestStore_ListScansNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 12; i++ {
		scan, err := domain.NewScan("example.com", 0)
		require.NoError(t, err)
		scan.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.CreateScan(ctx, scan))
	}

	list, err := s.ListScans(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 10)
	assert.True(t, list[0].CreatedAt.Equal(base.Add(11*time.Minute)))
	assert.True(t, list[9].CreatedAt.Equal(base.Add(2*time.Minute)))

	all, err := s.ListScans(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 12)
}

func TestStore_StatusCache(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	_, err := s.Get(ctx, "scan-1", "subfinder")
	assert.ErrorIs(t, err, domain.ErrStatusNotCached)

	require.NoError(t, s.Put(ctx, domain.ToolRecord{ScanID: "scan-1", Tool: "subfinder", Status: domain.ToolStatusRunning}))
	require.NoError(t, s.Put(ctx, domain.ToolRecord{ScanID: "scan-1", Tool: "subfinder", Status: domain.ToolStatusCompleted, Count: 2, Results: []string{"a", "b"}}))
	require.NoError(t, s.Put(ctx, domain.ToolRecord{ScanID: "scan-2", Tool: "subfinder", Status: domain.ToolStatusFailed}))
	require.NoError(t, s.Put(ctx, domain.ToolRecord{ScanID: "scan-1", Tool: "dnsx", Status: domain.ToolStatusIdle}))

	rec, err := s.Get(ctx, "scan-1", "subfinder")
	require.NoError(t, err)
	assert.Equal(t, domain.ToolStatusCompleted, rec.Status)
	assert.Equal(t, 2, rec.Count)
	assert.Equal(t, []string{"a", "b"}, rec.Results)
	assert.False(t, rec.UpdatedAt.IsZero())

	other, err := s.Get(ctx, "scan-2", "subfinder")
	require.NoError(t, err)
	assert.Equal(t, domain.ToolStatusFailed, other.Status)

	list, err := s.List(ctx, "scan-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "dnsx", list[0].Tool)
	assert.Equal(t, "subfinder", list[1].Tool)

	require.NoError(t, s.DeleteScan(ctx, "scan-1"))
	list, err = s.List(ctx, "scan-1")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.Get(ctx, "scan-2", "subfinder")
	assert.NoError(t, err)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "domscout.db")

	s, err := Open(path, nil)
	require.NoError(t, err)
	scan, err := domain.NewScan("example.com", 10)
	require.NoError(t, err)
	require.NoError(t, s.CreateScan(ctx, scan))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetScan(ctx, scan.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.RateLimit)
}

func TestStore_InMemory(t *testing.T) {
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(context.Background(), domain.ToolRecord{ScanID: "s", Tool: "httpx", Status: domain.ToolStatusRunning}))
	rec, err := s.Get(context.Background(), "s", "httpx")
	require.NoError(t, err)
	assert.Equal(t, domain.ToolStatusRunning, rec.Status)
}
