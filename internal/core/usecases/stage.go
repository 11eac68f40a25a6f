// internal/core/usecases/stage.go
package usecases

import (
	"time"

	"domscout/internal/core/domain"
)

// Nombres de los pasos internos de merge.
const (
	ToolMerge     = "merge"
	ToolMergeURLs = "merge2"
)

// Stage representa una etapa de ejecución en el pipeline.
// Las herramientas de un stage no dependen entre sí y corren en paralelo;
// los stages se ejecutan estrictamente en el orden declarado.
type Stage struct {
	// ID posición del stage (1 = primero)
	ID int

	// Phase estado del orquestador mientras el stage corre
	Phase domain.Phase

	// Tools nombres de las herramientas del stage
	Tools []string

	// Settle indica si antes del stage se espera el settle delay,
	// para que los archivos escritos por el stage anterior estén completos
	Settle bool
}

// Name retorna el nombre descriptivo del stage.
func (s Stage) Name() string {
	return s.Phase.Message()
}

// DefaultStages retorna el pipeline completo de herramientas.
func DefaultStages() []Stage {
	return []Stage{
		{ID: 1, Phase: domain.PhaseEnumerating, Tools: []string{"subfinder", "findomain", "assetfinder", "sublist3r", "crtsh"}},
		{ID: 2, Phase: domain.PhaseMerging, Tools: []string{ToolMerge}, Settle: true},
		{ID: 3, Phase: domain.PhaseResolving, Tools: []string{"dnsx"}},
		{ID: 4, Phase: domain.PhaseProbing, Tools: []string{"httpx"}},
		{ID: 5, Phase: domain.PhaseExtractingURLs, Tools: []string{"gau", "gospider"}, Settle: true},
		{ID: 6, Phase: domain.PhaseMergingURLs, Tools: []string{ToolMergeURLs}, Settle: true},
		{ID: 7, Phase: domain.PhaseScreenshotting, Tools: []string{"gowitness"}},
	}
}

// StageResult encapsula el resultado de ejecución de un stage completo.
type StageResult struct {
	StageID  int
	Phase    domain.Phase
	Runs     []domain.ToolRun
	Duration time.Duration
}

// Succeeded retorna cuántas herramientas terminaron en completed.
func (r StageResult) Succeeded() int {
	n := 0
	for _, run := range r.Runs {
		if run.Status == domain.ToolStatusCompleted {
			n++
		}
	}
	return n
}

// Failed retorna cuántas herramientas terminaron en failed.
func (r StageResult) Failed() int {
	n := 0
	for _, run := range r.Runs {
		if run.Status == domain.ToolStatusFailed {
			n++
		}
	}
	return n
}

// Count retorna la suma de resultados de todas las herramientas.
func (r StageResult) Count() int {
	n := 0
	for _, run := range r.Runs {
		n += run.Count
	}
	return n
}
