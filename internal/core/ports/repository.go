// internal/core/ports/repository.go
package ports

import (
	"context"

	"domscout/internal/core/domain"
)

// ScanRepository es el port para persistencia durable de scans y resultados.
type ScanRepository interface {
	// CreateScan inserta un scan nuevo
	CreateScan(ctx context.Context, scan *domain.Scan) error

	// UpdateScan persiste status, timestamps y duración
	UpdateScan(ctx context.Context, scan *domain.Scan) error

	// GetScan retorna domain.ErrScanNotFound si no existe
	GetScan(ctx context.Context, id string) (*domain.Scan, error)

	// ListScans retorna los últimos limit scans, más recientes primero
	ListScans(ctx context.Context, limit int) ([]domain.ScanSummary, error)

	// DeleteScan elimina el scan y todos sus resultados
	DeleteScan(ctx context.Context, id string) error

	ResultRepository

	// Close cierra la conexión con el repositorio
	Close() error
}

// ResultRepository maneja los resultados por scan. Los Replace* sustituyen
// el conjunto completo (re-ejecutar una herramienta no duplica filas).
type ResultRepository interface {
	ReplaceSubdomains(ctx context.Context, scanID string, subdomains []string) error
	ReplaceURLs(ctx context.Context, scanID string, endpoints []*domain.EndpointRecord) error
	ReplaceScreenshots(ctx context.Context, scanID string, shots []domain.Screenshot) error

	ListSubdomains(ctx context.Context, scanID string) ([]string, error)
	ListURLs(ctx context.Context, scanID string) ([]*domain.EndpointRecord, error)
	ListScreenshots(ctx context.Context, scanID string) ([]domain.Screenshot, error)

	Stats(ctx context.Context, scanID string) (domain.ScanStats, error)
}
