// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio comunes.
var (
	// Target errors
	ErrEmptyTarget   = errors.New("target cannot be empty")
	ErrInvalidDomain = errors.New("invalid domain format")
	ErrInvalidRate   = errors.New("rate limit must be positive")

	// Scan errors
	ErrScanNotFound       = errors.New("scan not found")
	ErrScanDeleted        = errors.New("scan was deleted")
	ErrScanAlreadyRunning = errors.New("scan is already running")
	ErrInvalidTransition  = errors.New("invalid scan status transition")

	// Pipeline errors
	ErrOrchestration    = errors.New("orchestration fault")
	ErrStageStarved     = errors.New("stage input artifact is missing or empty")
	ErrMissingResolvers = errors.New("resolvers file is missing or empty")
	ErrUnknownTool      = errors.New("unknown tool")

	// Storage errors
	ErrPersistence       = errors.New("persistence fault")
	ErrStatusNotCached   = errors.New("tool status not cached")
	ErrUnsupportedSchema = errors.New("unsupported artifact schema")
)

// ToolErrorKind clasifica por qué falló un Tool Run.
type ToolErrorKind string

const (
	ToolErrorNotFound ToolErrorKind = "not_found"
	ToolErrorLaunch   ToolErrorKind = "launch"
	ToolErrorExit     ToolErrorKind = "exit"
	ToolErrorTimeout  ToolErrorKind = "timeout"
	ToolErrorPanic    ToolErrorKind = "panic"
)

// ToolError es la mitad de error del resultado de un Tool Run.
type ToolError struct {
	Tool string
	Kind ToolErrorKind
	Err  error
}

func (e *ToolError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Tool, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Tool, e.Kind, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// NewToolError crea un ToolError.
func NewToolError(tool string, kind ToolErrorKind, err error) *ToolError {
	return &ToolError{Tool: tool, Kind: kind, Err: err}
}

// IsToolError indica si err contiene un ToolError del tipo dado.
// Un kind vacío coincide con cualquier ToolError.
func IsToolError(err error, kind ToolErrorKind) bool {
	var te *ToolError
	if !errors.As(err, &te) {
		return false
	}
	return kind == "" || te.Kind == kind
}
