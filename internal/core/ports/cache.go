// internal/core/ports/cache.go
package ports

import (
	"context"

	"domscout/internal/core/domain"
)

// StatusCache es el Status/Result Cache: (scan_id, tool) -> {status, count, results}.
// Put es un upsert last-writer-wins; escrituras de scans distintos no interfieren.
type StatusCache interface {
	// Put inserta o reemplaza el registro de (record.ScanID, record.Tool)
	Put(ctx context.Context, record domain.ToolRecord) error

	// Get retorna domain.ErrStatusNotCached si no hay registro
	Get(ctx context.Context, scanID, tool string) (domain.ToolRecord, error)

	// List retorna todos los registros de un scan ordenados por herramienta
	List(ctx context.Context, scanID string) ([]domain.ToolRecord, error)

	// DeleteScan elimina todos los registros de un scan
	DeleteScan(ctx context.Context, scanID string) error

	// Close libera conexiones
	Close() error
}
