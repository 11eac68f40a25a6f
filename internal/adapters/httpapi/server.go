// internal/adapters/httpapi/server.go
// Package httpapi exposes the scan service over HTTP (gin).
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"domscout/internal/core/domain"
	"domscout/internal/core/usecases"
	"domscout/internal/platform/errors"
	"domscout/internal/platform/logx"
	"domscout/internal/platform/metrics"
)

// ScanManager es lo que la API necesita del ScanService.
type ScanManager interface {
	CreateTarget(ctx context.Context, target string, rateLimit int) (*domain.Scan, error)
	StartScan(ctx context.Context, target string, rateLimit int) (*domain.Scan, error)
	AutoScan(ctx context.Context, id string) error
	RunTool(ctx context.Context, id, tool string) error
	Info(ctx context.Context, id string) (*usecases.ScanInfo, error)
	List(ctx context.Context) ([]domain.ScanSummary, error)
	ToolStatus(ctx context.Context, id string) (map[string]domain.ToolState, error)
	ToolResults(ctx context.Context, id, tool string) ([]string, error)
	Subdomains(ctx context.Context, id string) ([]string, error)
	URLs(ctx context.Context, id string) ([]*domain.EndpointRecord, error)
	Screenshots(ctx context.Context, id string) ([]domain.Screenshot, error)
	Delete(ctx context.Context, id string) error
}

var _ ScanManager = (*usecases.ScanService)(nil)

// HealthCheck reports a dependency problem as a non-nil error.
type HealthCheck func(ctx context.Context) error

// Options configura el servidor.
type Options struct {
	Addr           string
	Mode           string // debug | release | test
	ScreenshotsDir string

	Scans   ScanManager
	Metrics *metrics.Recorder
	Checks  map[string]HealthCheck
	Logger  logx.Logger
}

// Server es el servidor HTTP de la API.
type Server struct {
	router *gin.Engine
	opts   Options
	logger logx.Logger
}

// New crea el servidor y registra las rutas.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logx.NewNop()
	}
	if opts.Addr == "" {
		opts.Addr = ":5000"
	}
	switch opts.Mode {
	case gin.DebugMode, gin.TestMode:
		gin.SetMode(opts.Mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router: gin.New(),
		opts:   opts,
		logger: opts.Logger.With("component", "httpapi"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler retorna el http.Handler (tests).
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger())
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.health)
	if s.opts.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.opts.Metrics.Handler()))
	}
	if s.opts.ScreenshotsDir != "" {
		s.router.Static("/screenshots", s.opts.ScreenshotsDir)
	}

	api := s.router.Group("/api")
	{
		api.POST("/target", s.createTarget)
		api.POST("/scan", s.startScan)
		api.GET("/scans", s.listScans)

		scan := api.Group("/scan/:id")
		scan.GET("", s.scanInfo)
		scan.DELETE("", s.deleteScan)
		scan.POST("/auto", s.autoScan)
		scan.GET("/tools", s.toolStatus)
		scan.POST("/tool/:tool", s.runTool)
		scan.GET("/tool/:tool/results", s.toolResults)
		scan.GET("/subdomains", s.subdomains)
		scan.GET("/urls", s.urls)
		scan.GET("/screenshots", s.screenshots)
	}
}

// requestLogger registra cada request y alimenta las métricas HTTP.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		latency := time.Since(start)
		status := c.Writer.Status()

		if s.opts.Metrics != nil {
			s.opts.Metrics.ObserveRequest(c.Request.Method, route, status, latency)
		}
		if route == "/health" || route == "/metrics" {
			return
		}
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// Run sirve hasta que ctx se cancela y luego hace un shutdown ordenado.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "api server")
	case <-ctx.Done():
	}

	s.logger.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "api shutdown")
	}
	return nil
}
