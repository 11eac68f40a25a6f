// cmd/domscout/root.go
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"domscout/internal/core/domain"
	"domscout/internal/platform/config"
	"domscout/internal/platform/logx"
)

var (
	cfg    config.Config
	logger logx.Logger = logx.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "domscout",
	Short: "Attack surface recon pipeline",
	Long: `domscout runs a staged recon pipeline against a domain: subdomain
enumeration, DNS resolution, HTTP probing, URL extraction and screenshots,
then scores every live endpoint by how interesting it looks.

Run a scan from the terminal:
  domscout scan example.com --resolvers resolvers.txt

Or serve the HTTP API used by the web client:
  domscout serve --addr :5000`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())
}

// loadConfig carga la configuración y crea el logger antes de cada comando.
func loadConfig(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(cmd.Flags())
	if err != nil {
		return usageError(err)
	}
	if err := cfg.Validate(); err != nil {
		return usageError(err)
	}

	logger = logx.NewWithOptions(logx.Options{
		Level:  logx.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})
	logger.Debug("configuration loaded",
		"config_file", cfg.ConfigFile,
		"storage", cfg.Storage.Driver,
		"cache", cfg.Cache.Backend,
		"workers", cfg.Workers,
	)
	return nil
}

// exitError lleva el código de salida del proceso.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error {
	return &exitError{code: 2, err: err}
}

// exitCode: 0 ok, 2 configuración u objetivo inválido o dependencia
// requerida inutilizable, 1 cualquier otro fallo.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	switch {
	case errors.Is(err, domain.ErrEmptyTarget),
		errors.Is(err, domain.ErrInvalidDomain),
		errors.Is(err, domain.ErrInvalidRate),
		errors.Is(err, domain.ErrMissingResolvers):
		return 2
	}
	return 1
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
