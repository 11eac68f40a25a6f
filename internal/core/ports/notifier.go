// internal/core/ports/notifier.go
package ports

import (
	"context"
	"time"

	"domscout/internal/core/domain"
)

// Notifier es el port para eventos del pipeline (UI, métricas, logs).
// Implementa el patrón Observer para desacoplar el orquestador de la presentación.
type Notifier interface {
	// Notify entrega un evento. No debe bloquear por mucho tiempo:
	// se invoca desde la goroutine de control del scan.
	Notify(ctx context.Context, event Event)
}

// Event representa un evento del pipeline.
type Event struct {
	Type      EventType
	Timestamp time.Time
	ScanID    string

	// Phase fase actual del scan
	Phase domain.Phase

	// Step y Percent progreso al momento del evento
	Step    int
	Percent int
	Message string

	// Tool/Status/Count solo para eventos de herramienta
	Tool   string
	Status domain.ToolStatus
	Count  int

	Duration time.Duration
	Err      error
}

// EventType define los tipos de eventos del pipeline.
type EventType string

const (
	// Scan events
	EventScanStarted   EventType = "scan.started"
	EventScanCompleted EventType = "scan.completed"
	EventScanFailed    EventType = "scan.failed"
	EventPhaseChanged  EventType = "scan.phase"

	// Tool events
	EventToolStarted  EventType = "tool.started"
	EventToolFinished EventType = "tool.finished"
	EventToolSkipped  EventType = "tool.skipped"
)

// NotifierFunc adapta una función al port Notifier.
type NotifierFunc func(ctx context.Context, event Event)

// Notify implementa Notifier.
func (f NotifierFunc) Notify(ctx context.Context, event Event) {
	f(ctx, event)
}

// MultiNotifier reenvía cada evento a todos los notifiers en orden.
type MultiNotifier []Notifier

// Notify implementa Notifier.
func (m MultiNotifier) Notify(ctx context.Context, event Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, event)
		}
	}
}

// Exporter escribe los resultados puntuados de un scan.
type Exporter interface {
	// Name retorna el nombre del exporter (ej: "json", "table")
	Name() string

	// Export escribe los resultados ya ordenados
	Export(scan *domain.Scan, results []domain.ScoredResult) error
}
