// internal/adapters/storage/sqlite/sqlite.go
// Package sqlite persists scans, results and tool status records in a
// single SQLite file (pure Go driver, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/errors"
	"domscout/internal/platform/logx"
)

const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id           TEXT PRIMARY KEY,
	domain       TEXT NOT NULL,
	rate_limit   INTEGER NOT NULL DEFAULT 150,
	status       TEXT NOT NULL,
	created_at   INTEGER NOT NULL,
	started_at   INTEGER,
	completed_at INTEGER,
	duration     REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_scans_created ON scans(created_at DESC);

CREATE TABLE IF NOT EXISTS subdomains (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	scan_id   TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
	subdomain TEXT NOT NULL,
	UNIQUE(scan_id, subdomain)
);

CREATE TABLE IF NOT EXISTS urls (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	scan_id        TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
	url            TEXT NOT NULL,
	status_code    INTEGER NOT NULL DEFAULT 0,
	title          TEXT NOT NULL DEFAULT '',
	webserver      TEXT NOT NULL DEFAULT '',
	technologies   TEXT NOT NULL DEFAULT '[]',
	content_length INTEGER NOT NULL DEFAULT 0,
	headers        TEXT NOT NULL DEFAULT '{}',
	screenshot     TEXT NOT NULL DEFAULT '',
	roi_score      INTEGER NOT NULL DEFAULT 0,
	UNIQUE(scan_id, url)
);

CREATE INDEX IF NOT EXISTS idx_urls_score ON urls(scan_id, roi_score DESC);

CREATE TABLE IF NOT EXISTS screenshots (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	scan_id     TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
	url         TEXT NOT NULL,
	filename    TEXT NOT NULL,
	status_code INTEGER NOT NULL DEFAULT 0,
	title       TEXT NOT NULL DEFAULT '',
	headers     TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS tool_runs (
	scan_id    TEXT NOT NULL,
	tool       TEXT NOT NULL,
	status     TEXT NOT NULL,
	count      INTEGER NOT NULL DEFAULT 0,
	results    TEXT NOT NULL DEFAULT '[]',
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (scan_id, tool)
);
`

// Store implements ports.ScanRepository and ports.StatusCache on SQLite.
type Store struct {
	db     *sqlx.DB
	logger logx.Logger
}

var (
	_ ports.ScanRepository = (*Store)(nil)
	_ ports.StatusCache    = (*Store)(nil)
)

// Open opens (creating if needed) the database at path and applies the schema.
// path ":memory:" gives a private in-memory database.
func Open(path string, logger logx.Logger) (*Store, error) {
	if logger == nil {
		logger = logx.NewNop()
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrap(err, "create database dir")
			}
		}
	}

	db, err := sqlx.Open("sqlite", dsn(path))
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// un único writer evita SQLITE_BUSY con escrituras concurrentes del scheduler
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping sqlite")
	}

	s := &Store{db: db, logger: logger.With("component", "sqlite")}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("sqlite store ready", "path", path)
	return s, nil
}

func dsn(path string) string {
	pragmas := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		return "file::memory:?" + pragmas
	}
	return "file:" + path + "?" + pragmas + "&_pragma=journal_mode(WAL)"
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	return nil
}

// Close implements ports.ScanRepository and ports.StatusCache.
func (s *Store) Close() error {
	return s.db.Close()
}

// ---- scans ----

type scanRow struct {
	ID          string        `db:"id"`
	Domain      string        `db:"domain"`
	RateLimit   int           `db:"rate_limit"`
	Status      string        `db:"status"`
	CreatedAt   int64         `db:"created_at"`
	StartedAt   sql.NullInt64 `db:"started_at"`
	CompletedAt sql.NullInt64 `db:"completed_at"`
	Duration    float64       `db:"duration"`
}

type summaryRow struct {
	scanRow
	SubdomainsCount int `db:"subdomains_count"`
	URLsCount       int `db:"urls_count"`
}

func toScanRow(scan *domain.Scan) scanRow {
	return scanRow{
		ID:          scan.ID,
		Domain:      scan.Domain,
		RateLimit:   scan.RateLimit,
		Status:      string(scan.Status),
		CreatedAt:   scan.CreatedAt.UnixNano(),
		StartedAt:   nullTime(scan.StartedAt),
		CompletedAt: nullTime(scan.CompletedAt),
		Duration:    scan.DurationS,
	}
}

func (r scanRow) scan() domain.Scan {
	return domain.Scan{
		ID:          r.ID,
		Domain:      r.Domain,
		RateLimit:   r.RateLimit,
		Status:      domain.ScanStatus(r.Status),
		CreatedAt:   time.Unix(0, r.CreatedAt).UTC(),
		StartedAt:   timePtr(r.StartedAt),
		CompletedAt: timePtr(r.CompletedAt),
		DurationS:   r.Duration,
	}
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(0, n.Int64).UTC()
	return &t
}

// CreateScan inserts a new scan row.
func (s *Store) CreateScan(ctx context.Context, scan *domain.Scan) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO scans (id, domain, rate_limit, status, created_at, started_at, completed_at, duration)
		VALUES (:id, :domain, :rate_limit, :status, :created_at, :started_at, :completed_at, :duration)`,
		toScanRow(scan))
	if err != nil {
		return persistence(err, "create scan")
	}
	return nil
}

// UpdateScan persists status, timestamps and duration.
func (s *Store) UpdateScan(ctx context.Context, scan *domain.Scan) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE scans SET domain = :domain, rate_limit = :rate_limit, status = :status,
			started_at = :started_at, completed_at = :completed_at, duration = :duration
		WHERE id = :id`,
		toScanRow(scan))
	if err != nil {
		return persistence(err, "update scan")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrScanNotFound
	}
	return nil
}

// GetScan returns domain.ErrScanNotFound for unknown ids.
func (s *Store) GetScan(ctx context.Context, id string) (*domain.Scan, error) {
	var row scanRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM scans WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrScanNotFound
	}
	if err != nil {
		return nil, persistence(err, "get scan")
	}
	scan := row.scan()
	return &scan, nil
}

// ListScans returns the newest scans first with their result counts.
func (s *Store) ListScans(ctx context.Context, limit int) ([]domain.ScanSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	var rows []summaryRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT s.*,
			(SELECT COUNT(*) FROM subdomains WHERE scan_id = s.id) AS subdomains_count,
			(SELECT COUNT(*) FROM urls WHERE scan_id = s.id) AS urls_count
		FROM scans s
		ORDER BY s.created_at DESC, s.id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, persistence(err, "list scans")
	}

	out := make([]domain.ScanSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.ScanSummary{
			Scan:            r.scan(),
			SubdomainsCount: r.SubdomainsCount,
			URLsCount:       r.URLsCount,
		})
	}
	return out, nil
}

// DeleteScan removes the scan, its results (cascade) and its tool records.
func (s *Store) DeleteScan(ctx context.Context, id string) error {
	return s.withTx(ctx, "delete scan", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tool_runs WHERE scan_id = ?`, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, id)
		return err
	})
}

// ---- results ----

type urlRow struct {
	URL           string `db:"url"`
	StatusCode    int    `db:"status_code"`
	Title         string `db:"title"`
	Webserver     string `db:"webserver"`
	Technologies  string `db:"technologies"`
	ContentLength int    `db:"content_length"`
	Headers       string `db:"headers"`
	Screenshot    string `db:"screenshot"`
	ROIScore      int    `db:"roi_score"`
}

type screenshotRow struct {
	URL        string `db:"url"`
	Filename   string `db:"filename"`
	StatusCode int    `db:"status_code"`
	Title      string `db:"title"`
	Headers    string `db:"headers"`
}

// ReplaceSubdomains replaces the subdomain set of a scan.
func (s *Store) ReplaceSubdomains(ctx context.Context, scanID string, subdomains []string) error {
	return s.withTx(ctx, "replace subdomains", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM subdomains WHERE scan_id = ?`, scanID); err != nil {
			return err
		}
		stmt, err := tx.PreparexContext(ctx, `INSERT OR IGNORE INTO subdomains (scan_id, subdomain) VALUES (?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, sub := range subdomains {
			if _, err := stmt.ExecContext(ctx, scanID, sub); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceURLs replaces the endpoint set of a scan. nil entries are skipped.
func (s *Store) ReplaceURLs(ctx context.Context, scanID string, endpoints []*domain.EndpointRecord) error {
	return s.withTx(ctx, "replace urls", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM urls WHERE scan_id = ?`, scanID); err != nil {
			return err
		}
		stmt, err := tx.PreparexContext(ctx, `
			INSERT OR REPLACE INTO urls
				(scan_id, url, status_code, title, webserver, technologies, content_length, headers, screenshot, roi_score)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, e := range endpoints {
			if e == nil {
				continue
			}
			tech, err := encodeJSON(e.Technologies, "[]")
			if err != nil {
				return err
			}
			headers, err := encodeJSON(e.Headers, "{}")
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, scanID, e.URL, e.StatusCode, e.Title, e.Webserver,
				tech, e.ContentLength, headers, e.Screenshot, e.ROIScore); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceScreenshots replaces the screenshot set of a scan.
func (s *Store) ReplaceScreenshots(ctx context.Context, scanID string, shots []domain.Screenshot) error {
	return s.withTx(ctx, "replace screenshots", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM screenshots WHERE scan_id = ?`, scanID); err != nil {
			return err
		}
		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO screenshots (scan_id, url, filename, status_code, title, headers)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, shot := range shots {
			headers, err := encodeJSON(shot.Headers, "{}")
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, scanID, shot.URL, shot.Filename, shot.StatusCode, shot.Title, headers); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListSubdomains returns the subdomains of a scan in insertion order.
func (s *Store) ListSubdomains(ctx context.Context, scanID string) ([]string, error) {
	out := []string{}
	if err := s.db.SelectContext(ctx, &out, `SELECT subdomain FROM subdomains WHERE scan_id = ? ORDER BY id`, scanID); err != nil {
		return nil, persistence(err, "list subdomains")
	}
	return out, nil
}

// ListURLs returns the endpoints by descending score, then URL.
func (s *Store) ListURLs(ctx context.Context, scanID string) ([]*domain.EndpointRecord, error) {
	var rows []urlRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT url, status_code, title, webserver, technologies, content_length, headers, screenshot, roi_score
		FROM urls WHERE scan_id = ?
		ORDER BY roi_score DESC, url ASC`, scanID)
	if err != nil {
		return nil, persistence(err, "list urls")
	}

	out := make([]*domain.EndpointRecord, 0, len(rows))
	for _, r := range rows {
		rec := &domain.EndpointRecord{
			URL:           r.URL,
			StatusCode:    r.StatusCode,
			Title:         r.Title,
			Webserver:     r.Webserver,
			ContentLength: r.ContentLength,
			Screenshot:    r.Screenshot,
		}
		s.decodeJSON(r.Technologies, &rec.Technologies)
		s.decodeJSON(r.Headers, &rec.Headers)
		rec.SetScore(r.ROIScore)
		out = append(out, rec)
	}
	return out, nil
}

// ListScreenshots returns the screenshots of a scan in insertion order.
func (s *Store) ListScreenshots(ctx context.Context, scanID string) ([]domain.Screenshot, error) {
	var rows []screenshotRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT url, filename, status_code, title, headers
		FROM screenshots WHERE scan_id = ? ORDER BY id`, scanID)
	if err != nil {
		return nil, persistence(err, "list screenshots")
	}

	out := make([]domain.Screenshot, 0, len(rows))
	for _, r := range rows {
		shot := domain.Screenshot{URL: r.URL, Filename: r.Filename, StatusCode: r.StatusCode, Title: r.Title}
		s.decodeJSON(r.Headers, &shot.Headers)
		out = append(out, shot)
	}
	return out, nil
}

// Stats counts the result rows of a scan.
func (s *Store) Stats(ctx context.Context, scanID string) (domain.ScanStats, error) {
	var stats domain.ScanStats
	err := s.db.QueryRowxContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM subdomains WHERE scan_id = ?),
			(SELECT COUNT(*) FROM urls WHERE scan_id = ?),
			(SELECT COUNT(*) FROM screenshots WHERE scan_id = ?)`,
		scanID, scanID, scanID).Scan(&stats.Subdomains, &stats.AliveURLs, &stats.Screenshots)
	if err != nil {
		return stats, persistence(err, "scan stats")
	}
	return stats, nil
}

// ---- tool status ----

type toolRow struct {
	ScanID    string `db:"scan_id"`
	Tool      string `db:"tool"`
	Status    string `db:"status"`
	Count     int    `db:"count"`
	Results   string `db:"results"`
	UpdatedAt int64  `db:"updated_at"`
}

func (s *Store) record(r toolRow) domain.ToolRecord {
	rec := domain.ToolRecord{
		ScanID:    r.ScanID,
		Tool:      r.Tool,
		Status:    domain.ToolStatus(r.Status),
		Count:     r.Count,
		UpdatedAt: time.Unix(0, r.UpdatedAt).UTC(),
	}
	s.decodeJSON(r.Results, &rec.Results)
	return rec
}

// Put upserts the record for (scan, tool).
func (s *Store) Put(ctx context.Context, record domain.ToolRecord) error {
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now()
	}
	results, err := encodeJSON(record.Results, "[]")
	if err != nil {
		return persistence(err, "encode results")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tool_runs (scan_id, tool, status, count, results, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(scan_id, tool) DO UPDATE SET
			status = excluded.status,
			count = excluded.count,
			results = excluded.results,
			updated_at = excluded.updated_at`,
		record.ScanID, record.Tool, string(record.Status), record.Count, results, record.UpdatedAt.UnixNano())
	if err != nil {
		return persistence(err, "put tool record")
	}
	return nil
}

// Get returns domain.ErrStatusNotCached when there is no record.
func (s *Store) Get(ctx context.Context, scanID, tool string) (domain.ToolRecord, error) {
	var row toolRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM tool_runs WHERE scan_id = ? AND tool = ?`, scanID, tool)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ToolRecord{}, domain.ErrStatusNotCached
	}
	if err != nil {
		return domain.ToolRecord{}, persistence(err, "get tool record")
	}
	return s.record(row), nil
}

// List returns every record of a scan ordered by tool.
func (s *Store) List(ctx context.Context, scanID string) ([]domain.ToolRecord, error) {
	var rows []toolRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM tool_runs WHERE scan_id = ? ORDER BY tool`, scanID); err != nil {
		return nil, persistence(err, "list tool records")
	}
	out := make([]domain.ToolRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, s.record(r))
	}
	return out, nil
}

// ---- helpers ----

func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return persistence(err, op)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return persistence(err, op)
	}
	if err := tx.Commit(); err != nil {
		return persistence(err, op)
	}
	return nil
}

func persistence(err error, op string) error {
	return errors.Wrapf(errors.Join(domain.ErrPersistence, err), "sqlite %s", op)
}

func encodeJSON(v any, empty string) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if s := string(data); s != "null" {
		return s, nil
	}
	return empty, nil
}

func (s *Store) decodeJSON(raw string, v any) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.logger.Warn("malformed JSON column", "error", err.Error())
	}
}
