// internal/core/usecases/status_table.go
package usecases

import (
	"sort"
	"sync"
	"time"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
)

// StatusTable es la tabla autoritativa de estados por herramienta de un scan.
// Todas las lecturas y escrituras pasan por el mutex: los workers del stage
// la actualizan mientras la API la consulta.
type StatusTable struct {
	mu      sync.RWMutex
	runs    map[string]*domain.ToolRun
	results map[string][]string
	order   []string
}

// NewStatusTable crea la tabla con todas las herramientas de stages en idle.
func NewStatusTable(stages []Stage) *StatusTable {
	t := &StatusTable{
		runs:    make(map[string]*domain.ToolRun),
		results: make(map[string][]string),
	}
	for _, stage := range stages {
		for _, tool := range stage.Tools {
			t.ensure(tool, stage.Phase)
		}
	}
	return t
}

func (t *StatusTable) ensure(tool string, phase domain.Phase) *domain.ToolRun {
	run, ok := t.runs[tool]
	if !ok {
		run = domain.NewToolRun(tool, phase)
		t.runs[tool] = run
		t.order = append(t.order, tool)
	}
	return run
}

// Start marca tool como running.
func (t *StatusTable) Start(tool string, phase domain.Phase, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensure(tool, phase).Start(now)
}

// Complete registra una ejecución exitosa y retorna una copia del run.
func (t *StatusTable) Complete(tool string, out ports.ToolOutput, now time.Time) domain.ToolRun {
	t.mu.Lock()
	defer t.mu.Unlock()

	run := t.ensure(tool, "")
	run.Complete(out.Count, out.Artifacts, now)
	t.results[tool] = out.Results
	return *run
}

// Fail registra un fallo y retorna una copia del run.
func (t *StatusTable) Fail(tool string, err error, artifacts []domain.Artifact, now time.Time) domain.ToolRun {
	t.mu.Lock()
	defer t.mu.Unlock()

	run := t.ensure(tool, "")
	run.Fail(err, artifacts, now)
	delete(t.results, tool)
	return *run
}

// Restore carga un registro del Status/Result Cache.
// Un run que quedó en running pertenece a un proceso que ya no existe: se
// restaura como failed.
func (t *StatusTable) Restore(record domain.ToolRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	run := t.ensure(record.Tool, "")
	run.Status = record.Status
	run.Count = record.Count
	if record.Status == domain.ToolStatusRunning {
		run.Status = domain.ToolStatusFailed
		run.Count = 0
	}
	if record.Results != nil {
		t.results[record.Tool] = record.Results
	}
}

// Snapshot retorna {status, count} por herramienta.
func (t *StatusTable) Snapshot() map[string]domain.ToolState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]domain.ToolState, len(t.runs))
	for name, run := range t.runs {
		out[name] = run.State()
	}
	return out
}

// Run retorna una copia del run de tool.
func (t *StatusTable) Run(tool string) (domain.ToolRun, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	run, ok := t.runs[tool]
	if !ok {
		return domain.ToolRun{}, false
	}
	return *run, true
}

// Runs retorna copias de todos los runs en orden de pipeline.
func (t *StatusTable) Runs() []domain.ToolRun {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]domain.ToolRun, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, *t.runs[name])
	}
	return out
}

// Results retorna las entradas producidas por el último run exitoso de tool.
func (t *StatusTable) Results(tool string) ([]string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	res, ok := t.results[tool]
	if !ok {
		return nil, false
	}
	out := make([]string, len(res))
	copy(out, res)
	return out, true
}

// IsRunning indica si tool está en ejecución.
func (t *StatusTable) IsRunning(tool string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	run, ok := t.runs[tool]
	return ok && run.Status == domain.ToolStatusRunning
}

// Artifacts retorna todos los artifacts registrados, ordenados por ruta.
func (t *StatusTable) Artifacts() []domain.Artifact {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []domain.Artifact
	for _, run := range t.runs {
		out = append(out, run.Artifacts...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Record construye el registro del cache para tool.
func (t *StatusTable) Record(scanID, tool string, now time.Time) domain.ToolRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec := domain.ToolRecord{ScanID: scanID, Tool: tool, Status: domain.ToolStatusIdle, UpdatedAt: now}
	if run, ok := t.runs[tool]; ok {
		rec.Status = run.Status
		rec.Count = run.Count
	}
	if res, ok := t.results[tool]; ok {
		rec.Results = append([]string(nil), res...)
	}
	return rec
}
