// internal/core/usecases/scan_service.go
package usecases

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/errors"
	"domscout/internal/platform/logx"
	"domscout/internal/platform/resilience"
	"domscout/internal/platform/ui"
)

// RecentScansLimit es cuántos scans retorna List.
const RecentScansLimit = 10

// ScanService administra el ciclo de vida de los scans: creación, ejecución
// en segundo plano, ejecución de herramientas sueltas, persistencia de
// resultados y borrado.
type ScanService struct {
	repo    ports.ScanRepository
	cache   ports.StatusCache
	tools   map[string]ports.Tool
	retrier *resilience.Retrier

	cfg       ScanServiceConfig
	logger    logx.Logger
	observers []ports.Notifier
	presenter ui.Presenter

	// baseCtx es el padre de las ejecuciones en segundo plano
	baseCtx    context.Context
	cancelBase context.CancelFunc

	mu      sync.Mutex
	handles map[string]*scanHandle
}

// ScanServiceConfig agrupa los parámetros de ejecución de los scans.
type ScanServiceConfig struct {
	WorkDir        string
	ScreenshotsDir string
	Resolvers      string
	Workers        int
	SettleDelay    time.Duration
	KeepArtifacts  bool
	Stages         []Stage
}

// ScanServiceOptions configura el ScanService.
type ScanServiceOptions struct {
	Repository ports.ScanRepository
	Cache      ports.StatusCache
	Tools      map[string]ports.Tool
	Retrier    *resilience.Retrier
	Config     ScanServiceConfig
	Logger     logx.Logger
	Observers  []ports.Notifier
	Presenter  ui.Presenter
}

// ScanInfo es la vista de un scan para la API.
type ScanInfo struct {
	Scan     *domain.Scan     `json:"scan"`
	Stats    domain.ScanStats `json:"stats"`
	Progress Progress         `json:"progress"`
}

// scanHandle es el estado en memoria de un scan conocido por el servicio.
// mu es compartido entre la persistencia y el borrado: una vez que deleted
// es true ninguna escritura vuelve a crear filas del scan.
type scanHandle struct {
	mu      sync.Mutex
	deleted bool

	orch    *PipelineOrchestrator
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup
}

// NewScanService crea el servicio.
func NewScanService(opts ScanServiceOptions) *ScanService {
	if opts.Logger == nil {
		opts.Logger = logx.NewNop()
	}
	if opts.Retrier == nil {
		opts.Retrier = resilience.NewRetrier(resilience.RetryConfig{MaxRetries: 3}, opts.Logger)
	}
	if opts.Presenter == nil {
		opts.Presenter = ui.NewNoopPresenter()
	}
	if opts.Tools == nil {
		opts.Tools = map[string]ports.Tool{}
	}

	base, cancel := context.WithCancel(context.Background())
	return &ScanService{
		repo:       opts.Repository,
		cache:      opts.Cache,
		tools:      opts.Tools,
		retrier:    opts.Retrier,
		cfg:        opts.Config,
		logger:     opts.Logger.With("component", "scan_service"),
		observers:  opts.Observers,
		presenter:  opts.Presenter,
		baseCtx:    base,
		cancelBase: cancel,
		handles:    make(map[string]*scanHandle),
	}
}

// CreateTarget registra un scan sin iniciarlo.
func (s *ScanService) CreateTarget(ctx context.Context, target string, rateLimit int) (*domain.Scan, error) {
	scan, err := domain.NewScan(target, rateLimit)
	if err != nil {
		return nil, err
	}
	if err := s.retrier.Do(ctx, "create scan", func(ctx context.Context) error {
		return s.repo.CreateScan(ctx, scan)
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	s.logger.Info("scan created", "scan_id", scan.ID, "target", scan.Domain)
	return scan, nil
}

// StartScan crea un scan y lanza el pipeline completo en segundo plano.
func (s *ScanService) StartScan(ctx context.Context, target string, rateLimit int) (*domain.Scan, error) {
	if err := s.checkResolvers(); err != nil {
		return nil, err
	}
	scan, err := s.CreateTarget(ctx, target, rateLimit)
	if err != nil {
		return nil, err
	}
	if err := s.AutoScan(ctx, scan.ID); err != nil {
		return nil, err
	}
	return scan, nil
}

// AutoScan lanza el pipeline completo de un scan existente en segundo plano.
func (s *ScanService) AutoScan(ctx context.Context, id string) error {
	if err := s.checkResolvers(); err != nil {
		return err
	}
	scan, err := s.repo.GetScan(ctx, id)
	if err != nil {
		return err
	}

	h := s.handle(scan)
	runCtx, err := s.begin(h)
	if err != nil {
		return err
	}

	go func() {
		defer s.end(h)
		if _, err := s.execute(runCtx, h, scan); err != nil {
			s.logger.Warn("background scan finished with error", "scan_id", scan.ID, "error", err.Error())
		}
	}()
	return nil
}

// RunScan ejecuta el pipeline completo y bloquea hasta terminar (modo CLI).
func (s *ScanService) RunScan(ctx context.Context, id string) (*RunResult, error) {
	if err := s.checkResolvers(); err != nil {
		return nil, err
	}
	scan, err := s.repo.GetScan(ctx, id)
	if err != nil {
		return nil, err
	}

	h := s.handle(scan)
	if _, err := s.begin(h); err != nil {
		return nil, err
	}
	defer s.end(h)

	return s.execute(ctx, h, scan)
}

// execute corre el orquestador y persiste el resultado.
func (s *ScanService) execute(ctx context.Context, h *scanHandle, scan *domain.Scan) (*RunResult, error) {
	logger := s.logger.With("scan_id", scan.ID)

	if scan.Status == domain.ScanStatusRunning {
		// quedó en running por un proceso anterior que no terminó
		logger.Warn("scan left running by a previous process, restarting")
		scan.Status = domain.ScanStatusFailed
	}
	if err := scan.Transition(domain.ScanStatusRunning, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, h, "mark scan running", func(ctx context.Context) error {
		return s.repo.UpdateScan(ctx, scan)
	}); err != nil {
		return nil, err
	}

	result, runErr := h.orch.Run(ctx)

	status := domain.ScanStatusCompleted
	if runErr != nil {
		status = domain.ScanStatusFailed
	}
	if err := scan.Transition(status, time.Now().UTC()); err != nil {
		logger.Warn("unexpected scan transition", "error", err.Error())
	}

	if runErr == nil {
		if err := s.saveResults(ctx, h, scan.ID, result); err != nil {
			logger.Err(err, "phase", "save_results")
			runErr = err
		}
	}

	if err := s.persist(context.WithoutCancel(ctx), h, "update scan status", func(ctx context.Context) error {
		return s.repo.UpdateScan(ctx, scan)
	}); err != nil && runErr == nil {
		runErr = err
	}

	if runErr != nil {
		return result, runErr
	}
	logger.Info("scan finished", "status", scan.Status.String(), "duration_s", scan.DurationS)
	return result, nil
}

// saveResults escribe subdominios, URLs y capturas en paralelo.
// Si el scan fue borrado no escribe nada.
func (s *ScanService) saveResults(ctx context.Context, h *scanHandle, scanID string, result *RunResult) error {
	if result == nil {
		return nil
	}
	return s.persist(ctx, h, "save results", func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return s.repo.ReplaceSubdomains(gctx, scanID, result.Subdomains)
		})
		g.Go(func() error {
			return s.repo.ReplaceURLs(gctx, scanID, result.Endpoints)
		})
		g.Go(func() error {
			return s.repo.ReplaceScreenshots(gctx, scanID, result.Screenshots)
		})
		return g.Wait()
	})
}

// RunTool ejecuta una herramienta de un scan en segundo plano y persiste
// sus resultados al terminar.
func (s *ScanService) RunTool(ctx context.Context, id, tool string) error {
	scan, err := s.repo.GetScan(ctx, id)
	if err != nil {
		return err
	}

	h := s.handle(scan)
	if !h.orch.HasTool(tool) {
		return fmt.Errorf("%w: %s", domain.ErrUnknownTool, tool)
	}
	runCtx, err := s.begin(h)
	if err != nil {
		return err
	}

	go func() {
		defer s.end(h)
		if err := s.runTool(runCtx, h, scan.ID, tool); err != nil {
			s.logger.Warn("tool run finished with error", "scan_id", scan.ID, "tool", tool, "error", err.Error())
		}
	}()
	return nil
}

func (s *ScanService) runTool(ctx context.Context, h *scanHandle, scanID, tool string) error {
	run, err := h.orch.RunTool(ctx, tool)
	if err != nil {
		return err
	}
	if run.Status != domain.ToolStatusCompleted {
		return run.Err
	}

	results, err := h.orch.Results(ctx, tool)
	if err != nil {
		return err
	}

	switch tool {
	case ToolMerge, "dnsx":
		return s.persist(ctx, h, "save subdomains", func(ctx context.Context) error {
			return s.repo.ReplaceSubdomains(ctx, scanID, results)
		})
	case "httpx":
		endpoints := h.orch.Endpoints(ctx, tool)
		NewROIService(s.logger).ScoreAll(endpoints)
		return s.persist(ctx, h, "save urls", func(ctx context.Context) error {
			return s.repo.ReplaceURLs(ctx, scanID, endpoints)
		})
	case "gowitness":
		shots := ScreenshotsFrom(h.orch.Endpoints(ctx, tool))
		return s.persist(ctx, h, "save screenshots", func(ctx context.Context) error {
			return s.repo.ReplaceScreenshots(ctx, scanID, shots)
		})
	}
	return nil
}

// Info retorna el scan con sus contadores y progreso.
func (s *ScanService) Info(ctx context.Context, id string) (*ScanInfo, error) {
	scan, err := s.repo.GetScan(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx, id)
	if err != nil {
		return nil, err
	}

	info := &ScanInfo{Scan: scan, Stats: stats, Progress: progressFor(scan)}
	s.mu.Lock()
	h, ok := s.handles[id]
	s.mu.Unlock()
	if ok && scan.Status == domain.ScanStatusRunning {
		info.Progress = h.orch.Progress()
	}
	return info, nil
}

// progressFor deriva el progreso de un scan sin orquestador activo.
func progressFor(scan *domain.Scan) Progress {
	phase := domain.PhaseInitializing
	switch scan.Status {
	case domain.ScanStatusCompleted:
		phase = domain.PhaseCompleted
	case domain.ScanStatusFailed:
		phase = domain.PhaseFailed
	}
	step := phase.Step()
	if step < 0 {
		step = 0
	}
	return Progress{
		Phase:   phase,
		Step:    step,
		Total:   domain.TotalSteps,
		Percent: domain.ProgressPercent(step),
		Message: phase.Message(),
	}
}

// List retorna los scans más recientes.
func (s *ScanService) List(ctx context.Context) ([]domain.ScanSummary, error) {
	return s.repo.ListScans(ctx, RecentScansLimit)
}

// ToolStatus retorna {status, count} por herramienta. Para scans sin
// orquestador en memoria la tabla se reconstruye desde el cache.
func (s *ScanService) ToolStatus(ctx context.Context, id string) (map[string]domain.ToolState, error) {
	scan, err := s.repo.GetScan(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.handle(scan).orch.Status(), nil
}

// ToolResults retorna la lista de resultados de una herramienta.
func (s *ScanService) ToolResults(ctx context.Context, id, tool string) ([]string, error) {
	scan, err := s.repo.GetScan(ctx, id)
	if err != nil {
		return nil, err
	}
	h := s.handle(scan)
	if !h.orch.HasTool(tool) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownTool, tool)
	}
	return h.orch.Results(ctx, tool)
}

// Subdomains retorna los subdominios persistidos.
func (s *ScanService) Subdomains(ctx context.Context, id string) ([]string, error) {
	if _, err := s.repo.GetScan(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListSubdomains(ctx, id)
}

// URLs retorna los endpoints persistidos.
func (s *ScanService) URLs(ctx context.Context, id string) ([]*domain.EndpointRecord, error) {
	if _, err := s.repo.GetScan(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListURLs(ctx, id)
}

// Screenshots retorna las capturas persistidas.
func (s *ScanService) Screenshots(ctx context.Context, id string) ([]domain.Screenshot, error) {
	if _, err := s.repo.GetScan(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListScreenshots(ctx, id)
}

// Delete borra el scan: filas, cache, directorio de trabajo y capturas.
// Una ejecución en curso se cancela y, al terminar, no persiste nada.
func (s *ScanService) Delete(ctx context.Context, id string) error {
	scan, err := s.repo.GetScan(ctx, id)
	if err != nil {
		return err
	}
	h := s.handle(scan)

	h.mu.Lock()
	h.deleted = true
	if h.cancel != nil {
		h.cancel()
	}
	h.mu.Unlock()

	if err := s.retrier.Do(ctx, "delete scan", func(ctx context.Context) error {
		return s.repo.DeleteScan(ctx, id)
	}); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if s.cache != nil {
		if err := s.cache.DeleteScan(ctx, id); err != nil {
			s.logger.Warn("failed to clear status cache", "scan_id", id, "error", err.Error())
		}
	}

	for _, dir := range []string{s.workDir(id), filepath.Join(s.cfg.ScreenshotsDir, id)} {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("failed to remove scan directory", "scan_id", id, "dir", dir, "error", err.Error())
		}
	}

	s.mu.Lock()
	if !h.running {
		delete(s.handles, id)
	}
	s.mu.Unlock()

	s.logger.Info("scan deleted", "scan_id", id)
	return nil
}

// Wait bloquea hasta que termine la ejecución en segundo plano del scan.
func (s *ScanService) Wait(id string) {
	s.mu.Lock()
	h, ok := s.handles[id]
	s.mu.Unlock()
	if ok {
		h.wg.Wait()
	}
}

// Close cancela las ejecuciones en curso y espera a que terminen.
func (s *ScanService) Close() {
	s.cancelBase()
	s.mu.Lock()
	handles := make([]*scanHandle, 0, len(s.handles))
	for _, h := range s.handles {
		handles = append(handles, h)
	}
	s.mu.Unlock()
	for _, h := range handles {
		h.wg.Wait()
	}
}

// handle retorna (o crea) el estado en memoria del scan.
func (s *ScanService) handle(scan *domain.Scan) *scanHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.handles[scan.ID]; ok {
		return h
	}

	h := &scanHandle{}
	h.orch = NewPipelineOrchestrator(PipelineOrchestratorOptions{
		ScanID:         scan.ID,
		Target:         scan.Domain,
		RateLimit:      scan.RateLimit,
		WorkDir:        s.workDir(scan.ID),
		ScreenshotsDir: s.cfg.ScreenshotsDir,
		Resolvers:      s.cfg.Resolvers,
		Tools:          s.tools,
		Stages:         s.cfg.Stages,
		Cache:          s.guardedCache(h),
		Logger:         s.logger,
		Observers:      s.observers,
		Presenter:      s.presenter,
		MaxWorkers:     s.cfg.Workers,
		SettleDelay:    s.cfg.SettleDelay,
		KeepArtifacts:  s.cfg.KeepArtifacts,
	})
	if err := h.orch.Restore(s.baseCtx); err != nil {
		s.logger.Warn("could not restore tool status", "scan_id", scan.ID, "error", err.Error())
	}
	s.handles[scan.ID] = h
	return h
}

// begin marca el scan como ocupado y retorna el contexto de la ejecución.
func (s *ScanService) begin(h *scanHandle) (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.deleted {
		return nil, domain.ErrScanDeleted
	}
	if h.running {
		return nil, domain.ErrScanAlreadyRunning
	}

	ctx, cancel := context.WithCancel(s.baseCtx)
	h.cancel = cancel
	h.running = true
	h.wg.Add(1)
	return ctx, nil
}

func (s *ScanService) end(h *scanHandle) {
	s.mu.Lock()
	h.mu.Lock()
	h.running = false
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	deleted := h.deleted
	h.mu.Unlock()
	if deleted {
		for id, other := range s.handles {
			if other == h {
				delete(s.handles, id)
			}
		}
	}
	s.mu.Unlock()
	h.wg.Done()
}

// persist ejecuta una escritura con reintentos salvo que el scan esté borrado.
func (s *ScanService) persist(ctx context.Context, h *scanHandle, op string, fn func(ctx context.Context) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.deleted {
		s.logger.Debug("skipping write for deleted scan", "op", op)
		return domain.ErrScanDeleted
	}
	if err := s.retrier.Do(ctx, op, fn); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

func (s *ScanService) workDir(id string) string {
	return filepath.Join(s.cfg.WorkDir, "scan_"+id)
}

// checkResolvers valida el archivo de resolvers si dnsx forma parte del pipeline.
func (s *ScanService) checkResolvers() error {
	if _, ok := s.tools["dnsx"]; !ok {
		return nil
	}
	return CheckResolvers(s.cfg.Resolvers)
}

// CheckResolvers retorna domain.ErrMissingResolvers si path no existe o está vacío.
func CheckResolvers(path string) error {
	if path == "" {
		return domain.ErrMissingResolvers
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrMissingResolvers, path)
	}
	return nil
}

// guardedCache envuelve el cache para que un scan borrado no vuelva a
// escribir su estado.
func (s *ScanService) guardedCache(h *scanHandle) ports.StatusCache {
	if s.cache == nil {
		return nil
	}
	return &guardedStatusCache{StatusCache: s.cache, handle: h}
}

type guardedStatusCache struct {
	ports.StatusCache
	handle *scanHandle
}

func (g *guardedStatusCache) Put(ctx context.Context, record domain.ToolRecord) error {
	g.handle.mu.Lock()
	defer g.handle.mu.Unlock()
	if g.handle.deleted {
		return nil
	}
	return g.StatusCache.Put(ctx, record)
}

// IsNotFound indica si err corresponde a un scan inexistente o borrado.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrScanNotFound) || errors.Is(err, domain.ErrScanDeleted)
}
