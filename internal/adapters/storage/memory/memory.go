// internal/adapters/storage/memory/memory.go
package memory

import (
	"context"
	"sort"
	"sync"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
)

// Store keeps scans, results and tool records in process memory.
// It implements both ports.ScanRepository and ports.StatusCache and is used
// by the standalone CLI when no database is configured, and by tests.
type Store struct {
	mu          sync.RWMutex
	scans       map[string]domain.Scan
	subdomains  map[string][]string
	urls        map[string][]domain.EndpointRecord
	screenshots map[string][]domain.Screenshot
	records     map[string]map[string]domain.ToolRecord
}

var (
	_ ports.ScanRepository = (*Store)(nil)
	_ ports.StatusCache    = (*Store)(nil)
)

// New creates an empty store.
func New() *Store {
	return &Store{
		scans:       make(map[string]domain.Scan),
		subdomains:  make(map[string][]string),
		urls:        make(map[string][]domain.EndpointRecord),
		screenshots: make(map[string][]domain.Screenshot),
		records:     make(map[string]map[string]domain.ToolRecord),
	}
}

// CreateScan stores a copy of scan.
func (s *Store) CreateScan(ctx context.Context, scan *domain.Scan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scans[scan.ID] = *scan
	return nil
}

// UpdateScan overwrites the stored scan. Unknown ids return ErrScanNotFound.
func (s *Store) UpdateScan(ctx context.Context, scan *domain.Scan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scans[scan.ID]; !ok {
		return domain.ErrScanNotFound
	}
	s.scans[scan.ID] = *scan
	return nil
}

// GetScan returns a copy of the stored scan.
func (s *Store) GetScan(ctx context.Context, id string) (*domain.Scan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scan, ok := s.scans[id]
	if !ok {
		return nil, domain.ErrScanNotFound
	}
	return &scan, nil
}

// ListScans returns the newest scans first.
func (s *Store) ListScans(ctx context.Context, limit int) ([]domain.ScanSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ScanSummary, 0, len(s.scans))
	for id, scan := range s.scans {
		out = append(out, domain.ScanSummary{
			Scan:            scan,
			SubdomainsCount: len(s.subdomains[id]),
			URLsCount:       len(s.urls[id]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteScan removes the scan and every row keyed by it.
func (s *Store) DeleteScan(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scans, id)
	delete(s.subdomains, id)
	delete(s.urls, id)
	delete(s.screenshots, id)
	delete(s.records, id)
	return nil
}

func (s *Store) ReplaceSubdomains(ctx context.Context, scanID string, subdomains []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subdomains[scanID] = append([]string(nil), subdomains...)
	return nil
}

func (s *Store) ReplaceURLs(ctx context.Context, scanID string, endpoints []*domain.EndpointRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]domain.EndpointRecord, 0, len(endpoints))
	for _, e := range endpoints {
		if e != nil {
			rows = append(rows, *e)
		}
	}
	s.urls[scanID] = rows
	return nil
}

func (s *Store) ReplaceScreenshots(ctx context.Context, scanID string, shots []domain.Screenshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screenshots[scanID] = append([]domain.Screenshot(nil), shots...)
	return nil
}

func (s *Store) ListSubdomains(ctx context.Context, scanID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.subdomains[scanID]...), nil
}

// ListURLs returns the endpoints by descending score.
func (s *Store) ListURLs(ctx context.Context, scanID string) ([]*domain.EndpointRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.EndpointRecord, 0, len(s.urls[scanID]))
	for _, row := range s.urls[scanID] {
		rec := row
		out = append(out, &rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ROIScore != out[j].ROIScore {
			return out[i].ROIScore > out[j].ROIScore
		}
		return out[i].URL < out[j].URL
	})
	return out, nil
}

func (s *Store) ListScreenshots(ctx context.Context, scanID string) ([]domain.Screenshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Screenshot{}, s.screenshots[scanID]...), nil
}

func (s *Store) Stats(ctx context.Context, scanID string) (domain.ScanStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.ScanStats{
		Subdomains:  len(s.subdomains[scanID]),
		AliveURLs:   len(s.urls[scanID]),
		Screenshots: len(s.screenshots[scanID]),
	}, nil
}

// Put upserts the record for (scan, tool).
func (s *Store) Put(ctx context.Context, record domain.ToolRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byTool, ok := s.records[record.ScanID]
	if !ok {
		byTool = make(map[string]domain.ToolRecord)
		s.records[record.ScanID] = byTool
	}
	record.Results = append([]string(nil), record.Results...)
	byTool[record.Tool] = record
	return nil
}

func (s *Store) Get(ctx context.Context, scanID, tool string) (domain.ToolRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[scanID][tool]
	if !ok {
		return domain.ToolRecord{}, domain.ErrStatusNotCached
	}
	rec.Results = append([]string(nil), rec.Results...)
	return rec, nil
}

func (s *Store) List(ctx context.Context, scanID string) ([]domain.ToolRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ToolRecord, 0, len(s.records[scanID]))
	for _, rec := range s.records[scanID] {
		rec.Results = append([]string(nil), rec.Results...)
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tool < out[j].Tool })
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
