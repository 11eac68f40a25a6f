// cmd/domscout/app.go
package main

import (
	"context"
	"fmt"

	"domscout/internal/adapters/output"
	"domscout/internal/adapters/storage/layered"
	"domscout/internal/adapters/storage/memory"
	"domscout/internal/adapters/storage/rediscache"
	"domscout/internal/adapters/storage/sqlite"
	"domscout/internal/core/ports"
	"domscout/internal/core/usecases"
	"domscout/internal/platform/config"
	"domscout/internal/platform/errors"
	"domscout/internal/platform/logx"
	"domscout/internal/platform/metrics"
	"domscout/internal/platform/registry"
	"domscout/internal/platform/resilience"
	"domscout/internal/platform/ui"

	// Import tools for auto-registration via init()
	_ "domscout/internal/tools/all"
)

// app agrupa las dependencias construidas a partir de la configuración.
type app struct {
	repo    ports.ScanRepository
	cache   *layered.StatusCache
	tools   map[string]ports.Tool
	metrics *metrics.Recorder
	events  *output.EventLog
	service *usecases.ScanService

	logger  logx.Logger
	closers []func() error
}

// newApp construye storage, cache, herramientas y el ScanService.
// presenter nil usa el presenter silencioso (modo API).
func newApp(ctx context.Context, cfg config.Config, logger logx.Logger, presenter ui.Presenter) (*app, error) {
	a := &app{logger: logger, metrics: metrics.NewRecorder()}

	repo, backend, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.repo = repo
	a.closers = append(a.closers, repo.Close)
	if !sameStore(repo, backend) {
		a.closers = append(a.closers, backend.Close)
	}

	a.cache = layered.New(backend, layered.Options{
		LRUSize:          cfg.Cache.LRUSize,
		LRUTTL:           cfg.Cache.LRUTTL,
		BreakerThreshold: cfg.Resilience.BreakerThreshold,
		BreakerCooldown:  cfg.Resilience.BreakerCooldown,
	}, logger)

	tools, err := registry.Global().BuildAll(cfg.ToolConfigs(), logger)
	if err != nil {
		// herramientas que no se pudieron construir quedan fuera del pipeline
		logger.Warn("some tools could not be built", "error", err.Error())
	}
	a.tools = tools

	observers := []ports.Notifier{a.metrics}
	if cfg.Output.EventsPath != "" {
		events, err := output.OpenEventLog(cfg.Output.EventsPath, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.events = events
		a.closers = append(a.closers, events.Close)
		observers = append(observers, events)
	}

	retrier := resilience.NewRetrier(resilience.RetryConfig{
		MaxRetries:        cfg.Resilience.MaxRetries,
		BackoffBase:       cfg.Resilience.BackoffBase,
		BackoffMultiplier: cfg.Resilience.BackoffMultiplier,
	}, logger)

	a.service = usecases.NewScanService(usecases.ScanServiceOptions{
		Repository: a.repo,
		Cache:      a.cache,
		Tools:      a.tools,
		Retrier:    retrier,
		Config: usecases.ScanServiceConfig{
			WorkDir:        cfg.WorkDir,
			ScreenshotsDir: cfg.ScreenshotsDir,
			Resolvers:      cfg.Resolvers,
			Workers:        cfg.Workers,
			SettleDelay:    cfg.SettleDelay,
			KeepArtifacts:  cfg.KeepArtifacts,
		},
		Logger:    logger,
		Observers: observers,
		Presenter: presenter,
	})

	logger.Info("domscout ready",
		"version", version,
		"tools", len(a.tools),
		"storage", cfg.Storage.Driver,
		"cache", cfg.Cache.Backend,
	)
	return a, nil
}

// openStorage abre el repositorio durable y el backend del status cache.
// Si Redis no responde el cache degrada a memoria en lugar de abortar.
func openStorage(ctx context.Context, cfg config.Config, logger logx.Logger) (ports.ScanRepository, ports.StatusCache, error) {
	var repo ports.ScanRepository
	switch cfg.Storage.Driver {
	case "memory":
		repo = memory.New()
	default:
		store, err := sqlite.Open(cfg.Storage.Path, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open storage: %w", err)
		}
		repo = store
	}

	switch cfg.Cache.Backend {
	case "sqlite", "memory":
		if cache, ok := repo.(ports.StatusCache); ok && cfg.Cache.Backend == cfg.Storage.Driver {
			return repo, cache, nil
		}
		return repo, memory.New(), nil
	case "redis":
		rc, err := rediscache.New(ctx, rediscache.Config{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			KeyTTL:   cfg.Cache.Redis.KeyTTL,
		}, logger)
		if err != nil {
			if !errors.Is(err, errors.ErrUnavailable) {
				repo.Close()
				return nil, nil, err
			}
			logger.Warn("redis unavailable, status cache falls back to memory", "addr", cfg.Cache.Redis.Addr, "error", err.Error())
			return repo, memory.New(), nil
		}
		return repo, rc, nil
	default:
		repo.Close()
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// sameStore indica si el backend del cache es el mismo objeto que el repositorio.
func sameStore(repo ports.ScanRepository, backend ports.StatusCache) bool {
	rc, ok := repo.(ports.StatusCache)
	return ok && rc == backend
}

// Close espera los scans en curso y libera los recursos en orden inverso.
func (a *app) Close() error {
	if a.service != nil {
		a.service.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
