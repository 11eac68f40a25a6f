// internal/platform/ui/pterm_presenter.go
package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pterm/pterm"
)

// PTermPresenter implementa Presenter usando la biblioteca pterm
// para renderizar spinners, colores y símbolos en la terminal.
type PTermPresenter struct {
	mu sync.Mutex

	// Tracking de progreso
	stages        map[int]*StageProgress
	currentStage  int
	totalStages   int
	scanStartTime time.Time

	// Spinners activos por herramienta
	spinners map[string]*pterm.SpinnerPrinter

	scanInfo ScanInfo
	writer   io.Writer
}

// NewPTermPresenter crea una nueva instancia del presenter con pterm
func NewPTermPresenter() *PTermPresenter {
	return &PTermPresenter{
		stages:   make(map[int]*StageProgress),
		spinners: make(map[string]*pterm.SpinnerPrinter),
	}
}

// WithWriter redirige la salida de los spinners (por defecto stdout).
func (p *PTermPresenter) WithWriter(w io.Writer) *PTermPresenter {
	p.writer = w
	return p
}

// Start inicia la presentación mostrando el header del escaneo
func (p *PTermPresenter) Start(info ScanInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.scanInfo = info
	p.totalStages = info.TotalStages
	p.scanStartTime = time.Now()

	pterm.DefaultHeader.
		WithBackgroundStyle(pterm.NewStyle(pterm.BgCyan)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Println("domscout - Recon Pipeline")

	pterm.Println()

	infoPanel := pterm.DefaultBox.
		WithTitle("Target Information").
		WithTitleTopCenter().
		WithRightPadding(4).
		WithLeftPadding(4).
		WithBoxStyle(pterm.NewStyle(pterm.FgCyan))

	targetInfo := fmt.Sprintf("%s Target: %s\n", IconTarget, pterm.Cyan(info.Target))
	targetInfo += fmt.Sprintf("   Scan ID: %s\n", pterm.Gray(info.ScanID))
	targetInfo += fmt.Sprintf("%s Workers: %d\n", IconWorkers, info.Workers)
	targetInfo += fmt.Sprintf("   Rate limit: %d req/s\n", info.RateLimit)
	targetInfo += fmt.Sprintf("%s Total Stages: %d", IconStage, info.TotalStages)

	infoPanel.Println(targetInfo)

	pterm.Println()
	pterm.Println(pterm.LightBlue(SeparatorHeavy))
	pterm.Println()
}

// StartStage notifica el inicio de un nuevo stage
func (p *PTermPresenter) StartStage(stage StageInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.currentStage = stage.Number

	progress := &StageProgress{
		Number:    stage.Number,
		Name:      stage.Name,
		Status:    StatusRunning,
		Tools:     make(map[string]*ToolProgress),
		StartTime: time.Now(),
	}
	for _, name := range stage.Tools {
		progress.Tools[name] = &ToolProgress{Name: name, Status: StatusPending}
	}
	p.stages[stage.Number] = progress

	pterm.DefaultSection.WithLevel(2).Println(fmt.Sprintf("%s Stage %d/%d: %s",
		IconStage,
		stage.Number,
		stage.TotalStages,
		pterm.Cyan(stage.Name),
	))
}

// StartTool notifica el inicio de ejecución de una herramienta
func (p *PTermPresenter) StartTool(stageNum int, toolName string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stage, exists := p.stages[stageNum]
	if !exists {
		return
	}

	tool, exists := stage.Tools[toolName]
	if !exists {
		tool = &ToolProgress{Name: toolName}
		stage.Tools[toolName] = tool
	}
	tool.Status = StatusRunning
	tool.StartTime = time.Now()

	spinner := pterm.DefaultSpinner.
		WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷").
		WithRemoveWhenDone(true)
	if p.writer != nil {
		spinner = spinner.WithWriter(p.writer)
	}
	started, err := spinner.Start(fmt.Sprintf("  Running %s...", pterm.Cyan(toolName)))
	if err == nil {
		p.spinners[toolName] = started
	}
}

// FinishTool notifica la finalización de una herramienta
func (p *PTermPresenter) FinishTool(toolName string, status Status, duration time.Duration, count int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, stage := range p.stages {
		if tool, exists := stage.Tools[toolName]; exists {
			tool.Status = status
			tool.Duration = duration
			tool.Count = count
			break
		}
	}

	if spinner, exists := p.spinners[toolName]; exists {
		_ = spinner.Stop()
		delete(p.spinners, toolName)
	}

	p.renderToolLine(toolName, status, duration, count)
}

// FinishStage notifica la finalización de un stage
func (p *PTermPresenter) FinishStage(stageNum int, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stage, exists := p.stages[stageNum]
	if !exists {
		return
	}

	stage.Status = StatusSuccess
	stage.Duration = duration
	for _, tool := range stage.Tools {
		if tool.Status == StatusError {
			stage.Status = StatusWarning
			break
		}
	}

	pterm.Info.Printf("Stage %d completed in %s\n", stageNum, formatDuration(duration))
	pterm.Println(pterm.Gray(SeparatorLight))
	pterm.Println()
}

// Info muestra un mensaje informativo
func (p *PTermPresenter) Info(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pterm.Info.Println(msg)
}

// Warning muestra una advertencia
func (p *PTermPresenter) Warning(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pterm.Warning.Println(msg)
}

// Error muestra un error
func (p *PTermPresenter) Error(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pterm.Error.Println(msg)
}

// Finish finaliza la presentación con estadísticas finales
func (p *PTermPresenter) Finish(stats ScanStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopSpinners()

	pterm.Println()
	pterm.Println(pterm.LightBlue(SeparatorHeavy))
	pterm.Println()

	header := pterm.DefaultHeader.WithTextStyle(pterm.NewStyle(pterm.FgBlack))
	boxStyle := pterm.NewStyle(pterm.FgGreen)
	if stats.Failed {
		header.WithBackgroundStyle(pterm.NewStyle(pterm.BgRed)).Println("Scan Failed")
		boxStyle = pterm.NewStyle(pterm.FgRed)
	} else {
		header.WithBackgroundStyle(pterm.NewStyle(pterm.BgGreen)).Println("Scan Completed")
	}

	pterm.Println()

	content := fmt.Sprintf("%s Total Duration: %s\n", IconTime, pterm.Green(formatDuration(stats.TotalDuration)))
	content += fmt.Sprintf("%s Subdomains: %s\n", IconResults, pterm.Cyan(stats.Subdomains))
	content += fmt.Sprintf("   Alive URLs: %s\n", pterm.Cyan(stats.AliveURLs))
	content += fmt.Sprintf("   Scored Endpoints: %s\n", pterm.Yellow(stats.Endpoints))
	content += fmt.Sprintf("%s Screenshots: %s\n", IconShots, pterm.Cyan(stats.Screenshots))
	content += fmt.Sprintf("%s Tools Succeeded: %s", IconSuccess, pterm.Green(stats.ToolsSucceeded))
	if stats.ToolsFailed > 0 {
		content += fmt.Sprintf("\n%s Tools Failed: %s", IconError, pterm.Red(stats.ToolsFailed))
	}

	pterm.DefaultBox.
		WithTitle("Scan Statistics").
		WithTitleTopCenter().
		WithRightPadding(4).
		WithLeftPadding(4).
		WithBoxStyle(boxStyle).
		Println(content)

	pterm.Println()
}

// Close limpia recursos del presenter
func (p *PTermPresenter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopSpinners()
	return nil
}

func (p *PTermPresenter) stopSpinners() {
	for name, spinner := range p.spinners {
		_ = spinner.Stop()
		delete(p.spinners, name)
	}
}

// renderToolLine renderiza una línea con el estado final de una herramienta
func (p *PTermPresenter) renderToolLine(toolName string, status Status, duration time.Duration, count int) {
	line := fmt.Sprintf("  %s %s", status.Symbol(), status.Style().Sprint(truncate(toolName, 24)))

	switch status {
	case StatusSkipped:
		line += " (no input)"
	case StatusPending, StatusRunning:
	default:
		if duration > 0 {
			line += fmt.Sprintf(" (%s)", formatDuration(duration))
		}
		line += fmt.Sprintf(" %s %s results", IconResults, pterm.Cyan(count))
	}

	pterm.Println(line)
}
