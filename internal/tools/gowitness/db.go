// internal/tools/gowitness/db.go
package gowitness

import (
	"context"
	"database/sql"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"domscout/internal/core/domain"
	"domscout/internal/platform/errors"
)

// screenshotRow es una fila de resultados de gowitness. Los nombres de
// columna coinciden entre la tabla results (v3) y urls (v2).
type screenshotRow struct {
	ID             int64          `db:"id"`
	URL            string         `db:"url"`
	FinalURL       sql.NullString `db:"final_url"`
	ResponseCode   sql.NullInt64  `db:"response_code"`
	ResponseReason sql.NullString `db:"response_reason"`
	Title          sql.NullString `db:"title"`
	Filename       sql.NullString `db:"filename"`
}

type headerRow struct {
	OwnerID int64          `db:"owner_id"`
	Key     sql.NullString `db:"key"`
	Value   sql.NullString `db:"value"`
}

// schema describe dónde guarda cada versión de gowitness sus resultados.
type schema struct {
	table       string
	headerOwner string
}

var schemas = []schema{
	{table: "results", headerOwner: "result_id"}, // v3
	{table: "urls", headerOwner: "url_id"},       // v2
}

// ReadDB lee las capturas de la base de gowitness en dbPath. Filename queda
// como "<scanID>/<archivo>", relativo al directorio de screenshots.
// Una base inexistente no es error.
func ReadDB(ctx context.Context, dbPath, scanID string) ([]domain.Screenshot, error) {
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	db, err := sqlx.Open("sqlite", "file:"+dbPath+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "open gowitness db")
	}
	defer db.Close()

	s, ok, err := detectSchema(ctx, db)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(domain.ErrUnsupportedSchema, "gowitness db %s has no results or urls table", filepath.Base(dbPath))
	}

	var rows []screenshotRow
	query := `SELECT id, url, final_url, response_code, response_reason, title, filename
		FROM ` + s.table + ` WHERE filename IS NOT NULL AND filename != '' ORDER BY id`
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrapf(err, "query gowitness %s", s.table)
	}

	headers := readHeaders(ctx, db, s)

	shots := make([]domain.Screenshot, 0, len(rows))
	for _, row := range rows {
		shot := domain.Screenshot{
			URL:        strings.TrimSpace(row.URL),
			Filename:   path.Join(scanID, filepath.Base(row.Filename.String)),
			StatusCode: int(row.ResponseCode.Int64),
			Title:      strings.TrimSpace(row.Title.String),
			Headers:    headers[row.ID],
		}
		if shot.URL == "" {
			shot.URL = strings.TrimSpace(row.FinalURL.String)
		}
		shots = append(shots, shot)
	}
	return shots, nil
}

func detectSchema(ctx context.Context, db *sqlx.DB) (schema, bool, error) {
	for _, s := range schemas {
		var n int
		err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, s.table)
		if err != nil {
			return schema{}, false, errors.Wrap(err, "inspect gowitness db")
		}
		if n > 0 {
			return s, true, nil
		}
	}
	return schema{}, false, nil
}

// readHeaders es best-effort: sin tabla de headers el scoring usa solo el status.
func readHeaders(ctx context.Context, db *sqlx.DB, s schema) map[int64]map[string]string {
	var rows []headerRow
	query := `SELECT ` + s.headerOwner + ` AS owner_id, key, value FROM headers`
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil
	}

	out := make(map[int64]map[string]string)
	for _, row := range rows {
		name := strings.ToLower(strings.TrimSpace(row.Key.String))
		if name == "" {
			continue
		}
		if out[row.OwnerID] == nil {
			out[row.OwnerID] = make(map[string]string)
		}
		if _, seen := out[row.OwnerID][name]; !seen {
			out[row.OwnerID][name] = row.Value.String
		}
	}
	return out
}
