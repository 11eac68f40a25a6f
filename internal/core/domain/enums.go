// internal/core/domain/enums.go
package domain

// ScanStatus es el estado persistido de un Scan.
type ScanStatus string

const (
	ScanStatusCreated   ScanStatus = "created"
	ScanStatusRunning   ScanStatus = "running"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusFailed    ScanStatus = "failed"
)

// IsValid verifica si el estado es uno de los persistibles.
func (s ScanStatus) IsValid() bool {
	switch s {
	case ScanStatusCreated, ScanStatusRunning, ScanStatusCompleted, ScanStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal indica si el scan ya no está corriendo.
func (s ScanStatus) IsTerminal() bool {
	return s == ScanStatusCompleted || s == ScanStatusFailed
}

// String implementa fmt.Stringer.
func (s ScanStatus) String() string {
	return string(s)
}

// ToolStatus es el estado de un Tool Run en la tabla de estados.
type ToolStatus string

const (
	ToolStatusIdle      ToolStatus = "idle"
	ToolStatusRunning   ToolStatus = "running"
	ToolStatusCompleted ToolStatus = "completed"
	ToolStatusFailed    ToolStatus = "failed"
)

// IsValid verifica si el estado de la herramienta es conocido.
func (s ToolStatus) IsValid() bool {
	switch s {
	case ToolStatusIdle, ToolStatusRunning, ToolStatusCompleted, ToolStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal indica si la ejecución terminó (con éxito o no).
func (s ToolStatus) IsTerminal() bool {
	return s == ToolStatusCompleted || s == ToolStatusFailed
}

// String implementa fmt.Stringer.
func (s ToolStatus) String() string {
	return string(s)
}

// Schema describe el formato en disco de un Artifact.
type Schema string

const (
	// SchemaLines lista separada por saltos de línea, una entrada por línea.
	SchemaLines Schema = "lines"

	// SchemaJSONL un objeto JSON por línea (httpx -json).
	SchemaJSONL Schema = "jsonl"

	// SchemaSQLite base de datos escrita por la herramienta (gowitness).
	SchemaSQLite Schema = "sqlite"

	// SchemaJSON un único documento JSON.
	SchemaJSON Schema = "json"
)

// IsValid verifica si el schema es soportado.
func (s Schema) IsValid() bool {
	switch s {
	case SchemaLines, SchemaJSONL, SchemaSQLite, SchemaJSON:
		return true
	default:
		return false
	}
}
