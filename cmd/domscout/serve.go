// cmd/domscout/serve.go
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"domscout/internal/adapters/httpapi"
	"domscout/internal/platform/resilience"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API used by the web client. Scans started through the
API run in the background; their per-tool status is polled from the
status cache.

Endpoints:
  POST   /api/target                      create a scan without starting it
  POST   /api/scan                        create and start a scan
  GET    /api/scans                       last scans with counters
  GET    /api/scan/:id                    scan info, stats and progress
  POST   /api/scan/:id/auto               run the pipeline of an existing scan
  POST   /api/scan/:id/tool/:tool         run a single tool
  GET    /api/scan/:id/tools              per-tool status
  DELETE /api/scan/:id                    delete a scan and its files
  GET    /health, /metrics

Example:
  domscout serve --addr :5000 --cache redis --redis-addr localhost:6379`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveMode string

func init() {
	serveCmd.Flags().String("addr", ":5000", "Address to listen on")
	serveCmd.Flags().StringVar(&serveMode, "mode", "", "Gin mode (release, debug); defaults to server.mode")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	mode := cfg.Server.Mode
	if serveMode != "" {
		mode = serveMode
	}

	srv := httpapi.New(httpapi.Options{
		Addr:           cfg.Server.Addr,
		Mode:           mode,
		ScreenshotsDir: cfg.ScreenshotsDir,
		Scans:          a.service,
		Metrics:        a.metrics,
		Checks:         a.healthChecks(),
		Logger:         logger,
	})
	return srv.Run(ctx)
}

// healthChecks son los chequeos expuestos en /health.
func (a *app) healthChecks() map[string]httpapi.HealthCheck {
	return map[string]httpapi.HealthCheck{
		"storage": func(ctx context.Context) error {
			_, err := a.repo.ListScans(ctx, 1)
			return err
		},
		"status_cache": func(context.Context) error {
			if st := a.cache.Breaker().State(); st == resilience.StateOpen {
				return fmt.Errorf("backend circuit %s, serving from memory", st)
			}
			return nil
		},
		"tools": func(context.Context) error {
			if len(a.tools) == 0 {
				return fmt.Errorf("no tools enabled")
			}
			return nil
		},
	}
}
