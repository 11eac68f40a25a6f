// internal/platform/ui/presenter.go
package ui

import (
	"time"
)

// Presenter define la interfaz para presentar el progreso de un scan
// en la terminal. El orquestador la invoca desde su goroutine de control
// y desde los workers del stage, por lo que las implementaciones deben
// ser seguras para uso concurrente.
type Presenter interface {
	// Start inicia la presentación con información del escaneo
	Start(info ScanInfo)

	// StartStage notifica el inicio de un nuevo stage
	StartStage(stage StageInfo)

	// FinishStage notifica la finalización de un stage
	FinishStage(stageNum int, duration time.Duration)

	// StartTool notifica el inicio de ejecución de una herramienta
	StartTool(stageNum int, toolName string)

	// FinishTool notifica la finalización de una herramienta
	FinishTool(toolName string, status Status, duration time.Duration, count int)

	// Info muestra un mensaje informativo
	Info(msg string)

	// Warning muestra una advertencia
	Warning(msg string)

	// Error muestra un error
	Error(msg string)

	// Finish finaliza la presentación con estadísticas finales
	Finish(stats ScanStats)

	// Close limpia recursos del presenter
	Close() error
}

// ScanInfo contiene información inicial del escaneo
type ScanInfo struct {
	Target      string
	ScanID      string
	Workers     int
	RateLimit   int
	TotalStages int
}

// StageInfo contiene información de un stage
type StageInfo struct {
	Number      int
	TotalStages int
	Name        string
	Tools       []string
}

// ScanStats contiene estadísticas finales del escaneo
type ScanStats struct {
	TotalDuration  time.Duration
	Subdomains     int
	AliveURLs      int
	Endpoints      int
	Screenshots    int
	ToolsSucceeded int
	ToolsFailed    int
	Failed         bool
}

// ToolProgress representa el progreso de una herramienta
type ToolProgress struct {
	Name      string
	Status    Status
	Count     int
	Duration  time.Duration
	StartTime time.Time
}

// StageProgress representa el progreso de un stage completo
type StageProgress struct {
	Number    int
	Name      string
	Status    Status
	Tools     map[string]*ToolProgress
	StartTime time.Time
	Duration  time.Duration
}
