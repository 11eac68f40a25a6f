// internal/adapters/storage/layered/layered_test.go
package layered

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domscout/internal/adapters/storage/memory"
	"domscout/internal/core/domain"
	"domscout/internal/platform/errors"
	"domscout/internal/platform/resilience"
)

// flakyBackend cuenta llamadas y puede simular una caída.
type flakyBackend struct {
	*memory.Store
	down  atomic.Bool
	lists atomic.Int32
}

var errDown = errors.New("backend down")

func (f *flakyBackend) Put(ctx context.Context, rec domain.ToolRecord) error {
	if f.down.Load() {
		return errDown
	}
	return f.Store.Put(ctx, rec)
}

func (f *flakyBackend) List(ctx context.Context, scanID string) ([]domain.ToolRecord, error) {
	f.lists.Add(1)
	if f.down.Load() {
		return nil, errDown
	}
	return f.Store.List(ctx, scanID)
}

func newTest(threshold int) (*StatusCache, *flakyBackend) {
	backend := &flakyBackend{Store: memory.New()}
	return New(backend, Options{LRUSize: 16, BreakerThreshold: threshold, BreakerCooldown: time.Hour}, nil), backend
}

func TestStatusCache_ReadsAreServedFromMemory(t *testing.T) {
	ctx := context.Background()
	c, backend := newTest(3)

	require.NoError(t, backend.Store.Put(ctx, domain.ToolRecord{ScanID: "s1", Tool: "subfinder", Status: domain.ToolStatusCompleted, Count: 2}))

	for i := 0; i < 5; i++ {
		rec, err := c.Get(ctx, "s1", "subfinder")
		require.NoError(t, err)
		assert.Equal(t, 2, rec.Count)
	}
	assert.Equal(t, int32(1), backend.lists.Load())

	_, err := c.Get(ctx, "s1", "dnsx")
	assert.ErrorIs(t, err, domain.ErrStatusNotCached)
}

func TestStatusCache_PutUpdatesLoadedEntry(t *testing.T) {
	ctx := context.Background()
	c, backend := newTest(3)

	list, err := c.List(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, c.Put(ctx, domain.ToolRecord{ScanID: "s1", Tool: "subfinder", Status: domain.ToolStatusRunning}))
	require.NoError(t, c.Put(ctx, domain.ToolRecord{ScanID: "s1", Tool: "dnsx", Status: domain.ToolStatusIdle}))
	require.NoError(t, c.Put(ctx, domain.ToolRecord{ScanID: "s1", Tool: "subfinder", Status: domain.ToolStatusCompleted, Results: []string{"a"}}))

	list, err = c.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "dnsx", list[0].Tool)
	assert.Equal(t, domain.ToolStatusCompleted, list[1].Status)
	assert.Equal(t, int32(1), backend.lists.Load())

	// el backend también tiene los registros
	stored, err := backend.Store.Get(ctx, "s1", "subfinder")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, stored.Results)
}

func TestStatusCache_BackendOutage(t *testing.T) {
	ctx := context.Background()
	c, backend := newTest(2)
	backend.down.Store(true)

	require.NoError(t, c.Put(ctx, domain.ToolRecord{ScanID: "s1", Tool: "httpx", Status: domain.ToolStatusRunning}))
	require.NoError(t, c.Put(ctx, domain.ToolRecord{ScanID: "s1", Tool: "httpx", Status: domain.ToolStatusCompleted, Count: 4}))
	assert.Equal(t, resilience.StateOpen, c.Breaker().State())

	rec, err := c.Get(ctx, "s1", "httpx")
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Count)

	// scan sin entrada en memoria y breaker abierto
	_, err = c.Get(ctx, "s2", "httpx")
	assert.ErrorIs(t, err, domain.ErrStatusNotCached)

	_, err = c.List(ctx, "s2")
	assert.True(t, errors.Is(err, errors.ErrUnavailable))
}

func TestStatusCache_DeleteScan(t *testing.T) {
	ctx := context.Background()
	c, backend := newTest(3)

	require.NoError(t, c.Put(ctx, domain.ToolRecord{ScanID: "s1", Tool: "gau", Status: domain.ToolStatusCompleted}))
	_, err := c.Get(ctx, "s1", "gau")
	require.NoError(t, err)

	require.NoError(t, c.DeleteScan(ctx, "s1"))
	_, err = c.Get(ctx, "s1", "gau")
	assert.ErrorIs(t, err, domain.ErrStatusNotCached)
	_, err = backend.Store.Get(ctx, "s1", "gau")
	assert.ErrorIs(t, err, domain.ErrStatusNotCached)
}

func TestStatusCache_ConcurrentPuts(t *testing.T) {
	ctx := context.Background()
	c, _ := newTest(3)
	tools := []string{"subfinder", "findomain", "assetfinder", "sublist3r", "crtsh"}

	_, err := c.List(ctx, "s1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, tool := range tools {
		wg.Add(1)
		go func(tool string) {
			defer wg.Done()
			_ = c.Put(ctx, domain.ToolRecord{ScanID: "s1", Tool: tool, Status: domain.ToolStatusRunning})
			_ = c.Put(ctx, domain.ToolRecord{ScanID: "s1", Tool: tool, Status: domain.ToolStatusCompleted})
		}(tool)
	}
	wg.Wait()

	list, err := c.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, len(tools))
	for _, rec := range list {
		assert.Equal(t, domain.ToolStatusCompleted, rec.Status, rec.Tool)
	}
}
