// internal/core/domain/phase.go
package domain

// Phase es un estado de la máquina de estados del pipeline.
type Phase string

const (
	PhaseInitializing   Phase = "initializing"
	PhaseEnumerating    Phase = "enumerating"
	PhaseMerging        Phase = "merging"
	PhaseResolving      Phase = "resolving"
	PhaseProbing        Phase = "probing"
	PhaseExtractingURLs Phase = "extracting_urls"
	PhaseMergingURLs    Phase = "merging_urls"
	PhaseScreenshotting Phase = "screenshotting"
	PhaseParsing        Phase = "parsing"
	PhaseCleaningUp     Phase = "cleaning_up"
	PhaseCompleted      Phase = "completed"
	PhaseFailed         Phase = "failed"
)

// TotalSteps es el número de pasos entre Initializing y Completed.
const TotalSteps = 10

// PipelinePhases lista las fases en el orden en que se ejecutan.
var PipelinePhases = []Phase{
	PhaseInitializing,
	PhaseEnumerating,
	PhaseMerging,
	PhaseResolving,
	PhaseProbing,
	PhaseExtractingURLs,
	PhaseMergingURLs,
	PhaseScreenshotting,
	PhaseParsing,
	PhaseCleaningUp,
	PhaseCompleted,
}

var phaseMessages = map[Phase]string{
	PhaseInitializing:   "Initializing scan",
	PhaseEnumerating:    "Enumerating subdomains",
	PhaseMerging:        "Merging subdomain lists",
	PhaseResolving:      "Resolving subdomains",
	PhaseProbing:        "Probing live web services",
	PhaseExtractingURLs: "Extracting URLs",
	PhaseMergingURLs:    "Merging URL lists",
	PhaseScreenshotting: "Taking screenshots",
	PhaseParsing:        "Scoring endpoints",
	PhaseCleaningUp:     "Cleaning up temporary files",
	PhaseCompleted:      "Scan completed",
	PhaseFailed:         "Scan failed",
}

// Step retorna el índice de la fase en el pipeline.
// PhaseFailed y fases desconocidas retornan -1: el orquestador conserva el paso actual.
func (p Phase) Step() int {
	for i, phase := range PipelinePhases {
		if phase == p {
			return i
		}
	}
	return -1
}

// Message retorna el texto legible asociado a la fase.
func (p Phase) Message() string {
	if msg, ok := phaseMessages[p]; ok {
		return msg
	}
	return string(p)
}

// IsTerminal indica si la fase finaliza el pipeline.
func (p Phase) IsTerminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// String implementa fmt.Stringer.
func (p Phase) String() string {
	return string(p)
}

// ProgressPercent convierte un paso en porcentaje (0-100).
func ProgressPercent(step int) int {
	if step <= 0 {
		return 0
	}
	if step >= TotalSteps {
		return 100
	}
	return step * 100 / TotalSteps
}
