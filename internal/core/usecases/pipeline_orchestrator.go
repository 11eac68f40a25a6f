// internal/core/usecases/pipeline_orchestrator.go
package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/errors"
	"domscout/internal/platform/logx"
	"domscout/internal/platform/ui"
)

// PipelineOrchestrator ejecuta el pipeline de un único scan: recorre los
// stages en orden, mantiene la tabla de estados por herramienta y el
// progreso, y al final puntúa los endpoints descubiertos.
// Cada scan tiene su propia instancia y su propio directorio de trabajo.
type PipelineOrchestrator struct {
	scanID         string
	target         string
	rateLimit      int
	workDir        string
	screenshotsDir string
	resolvers      string

	tools  map[string]ports.Tool
	stages []Stage

	table     *StatusTable
	scheduler *StageScheduler
	roi       *ROIService
	cache     ports.StatusCache

	logger    logx.Logger
	observers []ports.Notifier
	presenter ui.Presenter

	settleDelay   time.Duration
	keepArtifacts bool
	maxWorkers    int

	// runMu serializa Run y RunTool sobre el mismo directorio de trabajo
	runMu sync.Mutex

	// progreso
	mu      sync.RWMutex
	phase   domain.Phase
	step    int
	message string

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// PipelineOrchestratorOptions configura el pipeline orchestrator.
type PipelineOrchestratorOptions struct {
	ScanID         string
	Target         string
	RateLimit      int
	WorkDir        string
	ScreenshotsDir string
	Resolvers      string

	// Tools herramientas externas habilitadas, por nombre. Los pasos de
	// merge se agregan automáticamente.
	Tools map[string]ports.Tool

	// Stages por defecto DefaultStages()
	Stages []Stage

	Cache         ports.StatusCache
	Logger        logx.Logger
	Observers     []ports.Notifier
	Presenter     ui.Presenter
	MaxWorkers    int
	SettleDelay   time.Duration
	KeepArtifacts bool
}

// RunResult es lo que produce un pipeline completo.
type RunResult struct {
	Subdomains     []string
	LiveSubdomains []string
	AliveURLs      []string
	Endpoints      []*domain.EndpointRecord
	Screenshots    []domain.Screenshot
	Scored         []domain.ScoredResult
	ScoredPath     string
	Stages         []StageResult
	Duration       time.Duration
}

// Progress es la vista del avance del scan.
type Progress struct {
	Phase   domain.Phase `json:"phase"`
	Step    int          `json:"step"`
	Total   int          `json:"total"`
	Percent int          `json:"percent"`
	Message string       `json:"message"`
}

// NewPipelineOrchestrator crea una nueva instancia del pipeline orchestrator.
func NewPipelineOrchestrator(opts PipelineOrchestratorOptions) *PipelineOrchestrator {
	if opts.Logger == nil {
		opts.Logger = logx.NewNop()
	}
	if opts.Presenter == nil {
		opts.Presenter = ui.NewNoopPresenter()
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 4
	}
	if len(opts.Stages) == 0 {
		opts.Stages = DefaultStages()
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = domain.DefaultRateLimit
	}

	logger := opts.Logger.With("component", "pipeline_orchestrator", "scan_id", opts.ScanID)

	tools := make(map[string]ports.Tool, len(opts.Tools)+2)
	for name, tool := range opts.Tools {
		if tool != nil {
			tools[name] = tool
		}
	}
	merge := NewMergeService(opts.Logger)
	for _, stage := range opts.Stages {
		switch stage.Phase {
		case domain.PhaseMerging:
			if _, ok := tools[ToolMerge]; !ok {
				tools[ToolMerge] = NewSubdomainMergeTool(stageTools(opts.Stages, domain.PhaseEnumerating), merge)
			}
		case domain.PhaseMergingURLs:
			if _, ok := tools[ToolMergeURLs]; !ok {
				tools[ToolMergeURLs] = NewURLMergeTool(stageTools(opts.Stages, domain.PhaseExtractingURLs), merge)
			}
		}
	}

	// solo quedan en el pipeline las herramientas disponibles
	stages := make([]Stage, 0, len(opts.Stages))
	for _, stage := range opts.Stages {
		available := make([]string, 0, len(stage.Tools))
		for _, name := range stage.Tools {
			if _, ok := tools[name]; ok {
				available = append(available, name)
			}
		}
		stage.Tools = available
		stages = append(stages, stage)
	}

	return &PipelineOrchestrator{
		scanID:         opts.ScanID,
		target:         opts.Target,
		rateLimit:      opts.RateLimit,
		workDir:        opts.WorkDir,
		screenshotsDir: opts.ScreenshotsDir,
		resolvers:      opts.Resolvers,
		tools:          tools,
		stages:         stages,
		table:          NewStatusTable(stages),
		scheduler:      NewStageScheduler(opts.MaxWorkers, opts.Logger),
		roi:            NewROIService(opts.Logger),
		cache:          opts.Cache,
		logger:         logger,
		observers:      opts.Observers,
		presenter:      opts.Presenter,
		settleDelay:    opts.SettleDelay,
		keepArtifacts:  opts.KeepArtifacts,
		maxWorkers:     opts.MaxWorkers,
		phase:          domain.PhaseInitializing,
		message:        domain.PhaseInitializing.Message(),
		now:            time.Now,
		sleep:          sleepContext,
	}
}

func stageTools(stages []Stage, phase domain.Phase) []string {
	for _, stage := range stages {
		if stage.Phase == phase {
			return stage.Tools
		}
	}
	return nil
}

// Restore carga la tabla de estados desde el Status/Result Cache, para
// scans que se ejecutaron en otro proceso.
func (p *PipelineOrchestrator) Restore(ctx context.Context) error {
	if p.cache == nil {
		return nil
	}
	records, err := p.cache.List(ctx, p.scanID)
	if err != nil {
		return errors.Wrap(err, "restore tool status")
	}
	for _, rec := range records {
		p.table.Restore(rec)
	}
	p.logger.Debug("tool status restored", "records", len(records))
	return nil
}

// Stages retorna los stages efectivos del pipeline.
func (p *PipelineOrchestrator) Stages() []Stage {
	return p.stages
}

// Run ejecuta el pipeline completo. Los fallos de herramientas quedan en la
// tabla de estados; solo un fallo del propio orquestador o la cancelación de
// ctx terminan en error (domain.ErrOrchestration).
func (p *PipelineOrchestrator) Run(ctx context.Context) (result *RunResult, err error) {
	if !p.runMu.TryLock() {
		return nil, domain.ErrScanAlreadyRunning
	}
	defer p.runMu.Unlock()

	start := p.now()
	p.mu.Lock()
	p.step = 0
	p.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", domain.ErrOrchestration, r)
		}
		if err != nil {
			p.fail(ctx, err, p.now().Sub(start))
			result = nil
		}
	}()

	p.setPhase(ctx, domain.PhaseInitializing)
	if err := p.prepareDirs(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOrchestration, err)
	}

	p.logger.Info("starting pipeline execution",
		"target", p.target,
		"stages", len(p.stages),
		"workers", p.maxWorkers,
	)
	p.presenter.Start(ui.ScanInfo{
		Target:      p.target,
		ScanID:      p.scanID,
		Workers:     p.maxWorkers,
		RateLimit:   p.rateLimit,
		TotalStages: len(p.stages),
	})
	defer p.presenter.Close()
	p.notify(ctx, ports.Event{Type: ports.EventScanStarted})

	result = &RunResult{}
	for _, stage := range p.stages {
		if err := p.checkContext(ctx); err != nil {
			return nil, err
		}

		p.setPhase(ctx, stage.Phase)
		if stage.Settle {
			if err := p.settle(ctx); err != nil {
				return nil, err
			}
		}

		stageResult := p.executeStage(ctx, stage)
		result.Stages = append(result.Stages, stageResult)

		p.logger.Info("stage completed",
			"stage", stage.Phase.String(),
			"duration_ms", stageResult.Duration.Milliseconds(),
			"results", stageResult.Count(),
			"succeeded", stageResult.Succeeded(),
			"failed", stageResult.Failed(),
		)
	}

	if err := p.checkContext(ctx); err != nil {
		return nil, err
	}

	p.setPhase(ctx, domain.PhaseParsing)
	if err := p.settle(ctx); err != nil {
		return nil, err
	}
	endpoints := p.CollectEndpoints(ctx)
	p.roi.ScoreAll(endpoints)
	result.Endpoints = endpoints
	result.Scored = domain.ScoredResults(endpoints)
	result.Screenshots = ScreenshotsFrom(endpoints)
	result.ScoredPath = filepath.Join(p.workDir, domain.FileScoredResults)
	if err := writeScored(result.ScoredPath, result.Scored); err != nil {
		// el archivo es un extra: los resultados siguen en memoria
		p.logger.Warn("failed to write scored results", "error", err.Error())
		result.ScoredPath = ""
	}

	p.setPhase(ctx, domain.PhaseCleaningUp)
	p.cleanup()

	result.Subdomains, _ = p.table.Results(ToolMerge)
	result.LiveSubdomains, _ = p.table.Results("dnsx")
	result.AliveURLs, _ = p.table.Results("httpx")
	result.Duration = p.now().Sub(start)

	p.setPhase(ctx, domain.PhaseCompleted)
	p.notify(ctx, ports.Event{Type: ports.EventScanCompleted, Duration: result.Duration, Count: len(result.Scored)})

	succeeded, failed := p.toolTotals()
	p.presenter.Finish(ui.ScanStats{
		TotalDuration:  result.Duration,
		Subdomains:     len(result.Subdomains),
		AliveURLs:      len(result.AliveURLs),
		Endpoints:      len(result.Scored),
		Screenshots:    len(result.Screenshots),
		ToolsSucceeded: succeeded,
		ToolsFailed:    failed,
	})

	p.logger.Info("pipeline execution completed",
		"duration_ms", result.Duration.Milliseconds(),
		"subdomains", len(result.Subdomains),
		"endpoints", len(result.Scored),
		"tools_failed", failed,
	)
	return result, nil
}

// RunTool ejecuta una sola herramienta fuera de orden. No valida que sus
// inputs existan: sin input la herramienta se registra como completada con 0.
func (p *PipelineOrchestrator) RunTool(ctx context.Context, name string) (domain.ToolRun, error) {
	tool, ok := p.tools[name]
	if !ok {
		return domain.ToolRun{}, fmt.Errorf("%w: %s", domain.ErrUnknownTool, name)
	}
	if !p.runMu.TryLock() {
		return domain.ToolRun{}, domain.ErrScanAlreadyRunning
	}
	defer p.runMu.Unlock()

	if err := p.prepareDirs(); err != nil {
		return domain.ToolRun{}, fmt.Errorf("%w: %v", domain.ErrOrchestration, err)
	}

	stage := Stage{Phase: tool.Stage(), Tools: []string{name}}
	for _, s := range p.stages {
		if s.Phase == tool.Stage() {
			stage.ID = s.ID
			break
		}
	}

	p.logger.Info("running single tool", "tool", name)
	p.scheduler.RunStage(ctx, stage, []ports.Tool{tool}, p.input(), p.table, p.hooks(ctx))

	run, _ := p.table.Run(name)
	return run, nil
}

// CollectEndpoints combina los endpoints de todas las herramientas que los
// producen, en orden de pipeline (first-non-null-wins).
func (p *PipelineOrchestrator) CollectEndpoints(ctx context.Context) []*domain.EndpointRecord {
	set := domain.NewEndpointSet()
	for _, stage := range p.stages {
		for _, name := range stage.Tools {
			for _, rec := range p.Endpoints(ctx, name) {
				set.Add(rec)
			}
		}
	}
	return set.All()
}

// Endpoints retorna los endpoints producidos por una herramienta, o nil si
// la herramienta no produce endpoints.
func (p *PipelineOrchestrator) Endpoints(ctx context.Context, name string) []*domain.EndpointRecord {
	source, ok := p.tools[name].(ports.EndpointSource)
	if !ok {
		return nil
	}
	records, err := source.Endpoints(ctx, p.input())
	if err != nil {
		p.logger.Warn("failed to read endpoints", "tool", name, "error", err.Error())
		return nil
	}
	return records
}

// Status retorna {status, count} por herramienta.
func (p *PipelineOrchestrator) Status() map[string]domain.ToolState {
	return p.table.Snapshot()
}

// Runs retorna los runs de todas las herramientas en orden de pipeline.
func (p *PipelineOrchestrator) Runs() []domain.ToolRun {
	return p.table.Runs()
}

// Results retorna la lista de resultados de una herramienta. Si la tabla no
// la tiene en memoria se consulta el Status/Result Cache.
func (p *PipelineOrchestrator) Results(ctx context.Context, tool string) ([]string, error) {
	if res, ok := p.table.Results(tool); ok {
		return res, nil
	}
	if p.cache == nil {
		return []string{}, nil
	}
	rec, err := p.cache.Get(ctx, p.scanID, tool)
	if err != nil {
		if errors.Is(err, domain.ErrStatusNotCached) {
			return []string{}, nil
		}
		return nil, err
	}
	if rec.Results == nil {
		return []string{}, nil
	}
	return rec.Results, nil
}

// Progress retorna el avance actual.
func (p *PipelineOrchestrator) Progress() Progress {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return Progress{
		Phase:   p.phase,
		Step:    p.step,
		Total:   domain.TotalSteps,
		Percent: domain.ProgressPercent(p.step),
		Message: p.message,
	}
}

// HasTool indica si name forma parte del pipeline.
func (p *PipelineOrchestrator) HasTool(name string) bool {
	_, ok := p.tools[name]
	return ok
}

// executeStage ejecuta un stage completo sobre el scheduler.
func (p *PipelineOrchestrator) executeStage(ctx context.Context, stage Stage) StageResult {
	tools := make([]ports.Tool, 0, len(stage.Tools))
	for _, name := range stage.Tools {
		tools = append(tools, p.tools[name])
	}

	p.presenter.StartStage(ui.StageInfo{
		Number:      stage.ID,
		TotalStages: len(p.stages),
		Name:        stage.Name(),
		Tools:       stage.Tools,
	})

	result := p.scheduler.RunStage(ctx, stage, tools, p.input(), p.table, p.hooks(ctx))

	p.presenter.FinishStage(stage.ID, result.Duration)
	return result
}

// hooks conecta el scheduler con presenter, observers y cache.
func (p *PipelineOrchestrator) hooks(ctx context.Context) SchedulerHooks {
	return SchedulerHooks{
		OnStart: func(stage Stage, tool string) {
			p.presenter.StartTool(stage.ID, tool)
			p.notify(ctx, ports.Event{Type: ports.EventToolStarted, Tool: tool, Status: domain.ToolStatusRunning})
			p.saveRecord(ctx, tool)
		},
		OnFinish: func(stage Stage, run domain.ToolRun, skipped bool) {
			evType := ports.EventToolFinished
			if skipped {
				evType = ports.EventToolSkipped
			}
			p.presenter.FinishTool(run.Tool, ui.StatusFor(run.Status, skipped), run.Duration, run.Count)
			p.notify(ctx, ports.Event{
				Type:     evType,
				Tool:     run.Tool,
				Status:   run.Status,
				Count:    run.Count,
				Duration: run.Duration,
				Err:      run.Err,
			})
			p.saveRecord(ctx, run.Tool)
		},
	}
}

// saveRecord publica el estado de tool en el Status/Result Cache.
// Un fallo del cache no afecta al pipeline: la tabla en memoria es la fuente.
func (p *PipelineOrchestrator) saveRecord(ctx context.Context, tool string) {
	if p.cache == nil {
		return
	}
	rec := p.table.Record(p.scanID, tool, p.now().UTC())
	if err := p.cache.Put(context.WithoutCancel(ctx), rec); err != nil {
		p.logger.Warn("failed to cache tool status", "tool", tool, "error", err.Error())
	}
}

func (p *PipelineOrchestrator) input() ports.ToolInput {
	return ports.ToolInput{
		ScanID:         p.scanID,
		Target:         p.target,
		WorkDir:        p.workDir,
		ScreenshotsDir: p.screenshotsDir,
		Resolvers:      p.resolvers,
		RateLimit:      p.rateLimit,
	}
}

func (p *PipelineOrchestrator) prepareDirs() error {
	if p.workDir == "" {
		return errors.New("work dir not configured")
	}
	if err := os.MkdirAll(p.workDir, 0o755); err != nil {
		return errors.Wrap(err, "create work dir")
	}
	if p.screenshotsDir != "" {
		if err := os.MkdirAll(filepath.Join(p.screenshotsDir, p.scanID), 0o755); err != nil {
			return errors.Wrap(err, "create screenshots dir")
		}
	}
	return nil
}

// setPhase avanza la máquina de estados. El paso nunca retrocede.
func (p *PipelineOrchestrator) setPhase(ctx context.Context, phase domain.Phase) {
	p.mu.Lock()
	p.phase = phase
	p.message = phase.Message()
	if step := phase.Step(); step > p.step {
		p.step = step
	}
	step := p.step
	p.mu.Unlock()

	p.logger.Debug("phase changed", "phase", phase.String(), "step", step)
	p.notify(ctx, ports.Event{Type: ports.EventPhaseChanged, Message: phase.Message()})
}

func (p *PipelineOrchestrator) fail(ctx context.Context, err error, elapsed time.Duration) {
	p.mu.Lock()
	p.phase = domain.PhaseFailed
	p.message = fmt.Sprintf("%s: %v", domain.PhaseFailed.Message(), err)
	p.mu.Unlock()

	p.logger.Err(err, "phase", "run")
	p.notify(ctx, ports.Event{Type: ports.EventScanFailed, Duration: elapsed, Err: err})
	p.presenter.Error(err.Error())

	succeeded, failed := p.toolTotals()
	p.presenter.Finish(ui.ScanStats{
		TotalDuration:  elapsed,
		ToolsSucceeded: succeeded,
		ToolsFailed:    failed,
		Failed:         true,
	})
}

func (p *PipelineOrchestrator) checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrOrchestration, err)
	}
	return nil
}

func (p *PipelineOrchestrator) settle(ctx context.Context) error {
	if p.settleDelay <= 0 {
		return nil
	}
	if err := p.sleep(ctx, p.settleDelay); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrOrchestration, err)
	}
	return nil
}

// cleanup elimina los artifacts intermedios. scored_results.json y las
// capturas se conservan.
func (p *PipelineOrchestrator) cleanup() {
	if p.keepArtifacts {
		p.logger.Debug("keeping intermediate artifacts")
		return
	}
	removed := 0
	for _, artifact := range p.table.Artifacts() {
		if artifact.Path == "" {
			continue
		}
		if err := os.Remove(artifact.Path); err != nil {
			if !os.IsNotExist(err) {
				p.logger.Warn("failed to remove artifact", "file", artifact.Name(), "error", err.Error())
			}
			continue
		}
		removed++
	}
	p.logger.Debug("artifacts removed", "count", removed)
}

func (p *PipelineOrchestrator) toolTotals() (succeeded, failed int) {
	for _, run := range p.table.Runs() {
		switch run.Status {
		case domain.ToolStatusCompleted:
			succeeded++
		case domain.ToolStatusFailed:
			failed++
		}
	}
	return succeeded, failed
}

// notify entrega ev a todos los observers completando los campos comunes.
func (p *PipelineOrchestrator) notify(ctx context.Context, ev ports.Event) {
	if len(p.observers) == 0 {
		return
	}
	progress := p.Progress()
	ev.Timestamp = p.now()
	ev.ScanID = p.scanID
	ev.Phase = progress.Phase
	ev.Step = progress.Step
	ev.Percent = progress.Percent
	if ev.Message == "" {
		ev.Message = progress.Message
	}
	ports.MultiNotifier(p.observers).Notify(ctx, ev)
}

// ScreenshotsFrom extrae las capturas de los endpoints que tienen una.
func ScreenshotsFrom(endpoints []*domain.EndpointRecord) []domain.Screenshot {
	shots := make([]domain.Screenshot, 0)
	for _, e := range endpoints {
		if e == nil || e.Screenshot == "" {
			continue
		}
		shots = append(shots, domain.Screenshot{
			URL:        e.URL,
			Filename:   e.Screenshot,
			StatusCode: e.StatusCode,
			Title:      e.Title,
			Headers:    e.Headers,
		})
	}
	return shots
}

func writeScored(path string, results []domain.ScoredResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
