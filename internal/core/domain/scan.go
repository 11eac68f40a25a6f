// internal/core/domain/scan.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"domscout/internal/platform/validator"
)

// DefaultRateLimit es el rate limit usado cuando el usuario no especifica uno.
const DefaultRateLimit = 150

// Scan representa una ejecución de reconocimiento contra un dominio.
type Scan struct {
	// ID identificador único (UUID v4)
	ID string `json:"id" db:"id"`

	// Domain dominio objetivo normalizado
	Domain string `json:"domain" db:"domain"`

	// RateLimit peticiones por segundo entregadas a las herramientas activas
	RateLimit int `json:"rate_limit" db:"rate_limit"`

	Status      ScanStatus `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`

	// DurationS segundos entre el inicio y la finalización del último run
	DurationS float64 `json:"duration" db:"duration"`
}

// NewScan crea un scan en estado created con un ID nuevo.
func NewScan(target string, rateLimit int) (*Scan, error) {
	if rateLimit == 0 {
		rateLimit = DefaultRateLimit
	}
	s := &Scan{
		ID:        uuid.NewString(),
		Domain:    target,
		RateLimit: rateLimit,
		Status:    ScanStatusCreated,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate verifica y normaliza el scan.
func (s *Scan) Validate() error {
	if s.Domain == "" {
		return ErrEmptyTarget
	}

	s.Domain = validator.NormalizeTarget(s.Domain)
	if !validator.IsDomain(s.Domain) {
		return fmt.Errorf("%w: %s", ErrInvalidDomain, s.Domain)
	}

	if s.RateLimit < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRate, s.RateLimit)
	}

	if !s.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, s.Status)
	}

	return nil
}

// Transition mueve el scan al estado indicado.
// Un scan terminado puede volver a running (re-ejecución desde la API).
func (s *Scan) Transition(to ScanStatus, now time.Time) error {
	if !s.canTransition(to) {
		if s.Status == ScanStatusRunning && to == ScanStatusRunning {
			return ErrScanAlreadyRunning
		}
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, to)
	}

	switch to {
	case ScanStatusRunning:
		started := now
		s.StartedAt = &started
		s.CompletedAt = nil
		s.DurationS = 0
	case ScanStatusCompleted, ScanStatusFailed:
		completed := now
		s.CompletedAt = &completed
		from := s.CreatedAt
		if s.StartedAt != nil {
			from = *s.StartedAt
		}
		s.DurationS = now.Sub(from).Seconds()
	}

	s.Status = to
	return nil
}

func (s *Scan) canTransition(to ScanStatus) bool {
	switch s.Status {
	case ScanStatusCreated:
		return to == ScanStatusRunning || to == ScanStatusFailed
	case ScanStatusRunning:
		return to == ScanStatusCompleted || to == ScanStatusFailed
	case ScanStatusCompleted, ScanStatusFailed:
		return to == ScanStatusRunning
	default:
		return false
	}
}

// IsActive indica si el scan está corriendo.
func (s *Scan) IsActive() bool {
	return s.Status == ScanStatusRunning
}
