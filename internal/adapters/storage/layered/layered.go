// internal/adapters/storage/layered/layered.go
// Package layered fronts a durable status cache with an in-memory LRU and a
// circuit breaker. Tool status polls are served from memory; while the
// backend is failing, writes land in memory only and reads degrade to it.
package layered

import (
	"context"
	"sort"
	"sync"
	"time"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/cache"
	"domscout/internal/platform/errors"
	"domscout/internal/platform/logx"
	"domscout/internal/platform/resilience"
)

// Options configures the memory layer and the breaker.
type Options struct {
	LRUSize          int
	LRUTTL           time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// StatusCache implements ports.StatusCache. Entries of the LRU are whole
// scans (tool -> record) so List is served without touching the backend.
type StatusCache struct {
	backend ports.StatusCache
	lru     *cache.MemoryCache[map[string]domain.ToolRecord]
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	logger  logx.Logger

	// serializa read-modify-write del LRU con la escritura al backend
	mu sync.Mutex
}

var _ ports.StatusCache = (*StatusCache)(nil)

// New wraps backend.
func New(backend ports.StatusCache, opts Options, logger logx.Logger) *StatusCache {
	if logger == nil {
		logger = logx.NewNop()
	}
	return &StatusCache{
		backend: backend,
		lru:     cache.NewMemoryCache[map[string]domain.ToolRecord](opts.LRUSize),
		ttl:     opts.LRUTTL,
		breaker: resilience.NewCircuitBreaker(opts.BreakerThreshold, opts.BreakerCooldown),
		logger:  logger.With("component", "status_cache"),
	}
}

// Breaker exposes the breaker state (health endpoint).
func (c *StatusCache) Breaker() *resilience.CircuitBreaker { return c.breaker }

// Put writes through to the backend and updates the memory entry of the
// scan when present. A backend failure is logged, never returned: the record
// stays in memory and status polls keep working.
func (c *StatusCache) Put(ctx context.Context, record domain.ToolRecord) error {
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}
	record.Results = append([]string(nil), record.Results...)

	c.mu.Lock()
	defer c.mu.Unlock()

	backendErr := c.call(func() error { return c.backend.Put(ctx, record) })

	entry, ok := c.lru.Get(record.ScanID)
	switch {
	case ok:
		next := clone(entry)
		next[record.Tool] = record
		c.lru.Set(record.ScanID, next, c.ttl)
	case backendErr != nil:
		c.lru.Set(record.ScanID, map[string]domain.ToolRecord{record.Tool: record}, c.ttl)
	}

	if backendErr != nil {
		c.logger.Warn("status backend write failed, kept in memory",
			"scan_id", record.ScanID, "tool", record.Tool, "error", backendErr.Error())
	}
	return nil
}

// Get serves from memory, loading the whole scan from the backend on a miss.
func (c *StatusCache) Get(ctx context.Context, scanID, tool string) (domain.ToolRecord, error) {
	if entry, ok := c.lru.Get(scanID); ok {
		if rec, ok := entry[tool]; ok {
			return copyRecord(rec), nil
		}
	}

	entry, err := c.load(ctx, scanID)
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return domain.ToolRecord{}, domain.ErrStatusNotCached
		}
		return domain.ToolRecord{}, err
	}
	rec, ok := entry[tool]
	if !ok {
		return domain.ToolRecord{}, domain.ErrStatusNotCached
	}
	return copyRecord(rec), nil
}

// List returns the records of a scan ordered by tool.
func (c *StatusCache) List(ctx context.Context, scanID string) ([]domain.ToolRecord, error) {
	entry, ok := c.lru.Get(scanID)
	if !ok {
		var err error
		if entry, err = c.load(ctx, scanID); err != nil {
			return nil, err
		}
	}

	out := make([]domain.ToolRecord, 0, len(entry))
	for _, rec := range entry {
		out = append(out, copyRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tool < out[j].Tool })
	return out, nil
}

// DeleteScan drops the memory entry and the backend records.
func (c *StatusCache) DeleteScan(ctx context.Context, scanID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Delete(scanID)
	if err := c.call(func() error { return c.backend.DeleteScan(ctx, scanID) }); err != nil {
		return errors.Wrap(err, "delete status records")
	}
	return nil
}

// Close closes the backend.
func (c *StatusCache) Close() error {
	return c.backend.Close()
}

// load reads the scan from the backend and caches it.
func (c *StatusCache) load(ctx context.Context, scanID string) (map[string]domain.ToolRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// un Put concurrente pudo haber creado la entrada
	if existing, ok := c.lru.Get(scanID); ok {
		return existing, nil
	}

	var records []domain.ToolRecord
	err := c.call(func() error {
		var err error
		records, err = c.backend.List(ctx, scanID)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(errors.Join(errors.ErrUnavailable, err), "load status of scan %s", scanID)
	}

	entry := make(map[string]domain.ToolRecord, len(records))
	for _, rec := range records {
		entry[rec.Tool] = rec
	}
	c.lru.Set(scanID, entry, c.ttl)
	return entry, nil
}

// call runs fn through the breaker. ErrStatusNotCached is not a backend fault.
func (c *StatusCache) call(fn func() error) error {
	if !c.breaker.Allow() {
		return resilience.ErrCircuitOpen
	}
	err := fn()
	if errors.Is(err, domain.ErrStatusNotCached) {
		c.breaker.Record(nil)
		return err
	}
	c.breaker.Record(err)
	return err
}

func clone(m map[string]domain.ToolRecord) map[string]domain.ToolRecord {
	out := make(map[string]domain.ToolRecord, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyRecord(rec domain.ToolRecord) domain.ToolRecord {
	rec.Results = append([]string(nil), rec.Results...)
	return rec
}
