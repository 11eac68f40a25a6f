// internal/core/domain/tool_run.go
package domain

import "time"

// ToolRun es una invocación de una herramienta dentro de un stage.
type ToolRun struct {
	Tool      string
	Stage     Phase
	Status    ToolStatus
	Count     int
	Artifacts []Artifact
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// NewToolRun crea un run en estado idle.
func NewToolRun(tool string, stage Phase) *ToolRun {
	return &ToolRun{
		Tool:   tool,
		Stage:  stage,
		Status: ToolStatusIdle,
	}
}

// Start marca el run como running.
func (r *ToolRun) Start(now time.Time) {
	r.Status = ToolStatusRunning
	r.StartedAt = now
	r.Count = 0
	r.Err = nil
	r.Artifacts = nil
}

// Complete registra un resultado exitoso.
func (r *ToolRun) Complete(count int, artifacts []Artifact, now time.Time) {
	r.Status = ToolStatusCompleted
	r.Count = count
	r.Artifacts = artifacts
	r.Err = nil
	r.finish(now)
}

// Fail registra un fallo; los artifacts parciales se conservan.
func (r *ToolRun) Fail(err error, artifacts []Artifact, now time.Time) {
	r.Status = ToolStatusFailed
	r.Count = 0
	r.Artifacts = artifacts
	r.Err = err
	r.finish(now)
}

func (r *ToolRun) finish(now time.Time) {
	if !r.StartedAt.IsZero() {
		r.Duration = now.Sub(r.StartedAt)
	}
}

// State retorna la vista {status, count} expuesta por la tabla de estados.
func (r *ToolRun) State() ToolState {
	return ToolState{Status: r.Status, Count: r.Count}
}

// ToolState es la entrada de la tabla de estados por herramienta.
type ToolState struct {
	Status ToolStatus `json:"status"`
	Count  int        `json:"count"`
}

// ToolRecord es lo que se guarda en el Status/Result Cache por (scan_id, tool).
type ToolRecord struct {
	ScanID    string     `json:"scan_id" db:"scan_id"`
	Tool      string     `json:"tool" db:"tool"`
	Status    ToolStatus `json:"status" db:"status"`
	Count     int        `json:"count" db:"count"`
	Results   []string   `json:"results"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// State retorna la vista {status, count} del registro.
func (r ToolRecord) State() ToolState {
	return ToolState{Status: r.Status, Count: r.Count}
}
