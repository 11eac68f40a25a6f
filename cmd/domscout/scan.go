// cmd/domscout/scan.go
package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"domscout/internal/adapters/output"
	"domscout/internal/core/ports"
	"domscout/internal/core/usecases"
	"domscout/internal/platform/logx"
	"domscout/internal/platform/ui"
)

var scanCmd = &cobra.Command{
	Use:   "scan <domain>",
	Short: "Run the full recon pipeline against a domain",
	Long: `Run every stage of the pipeline against <domain> and block until it
finishes. Tool failures do not fail the scan: the per-tool status table
records them and the scan continues with whatever the other tools produced.

The scored endpoints are written to scored_results.json inside the scan
working directory and printed as a table.

Examples:
  domscout scan example.com --resolvers resolvers.txt
  domscout scan example.com -l 50 --disable gospider,sublist3r -o results.json`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

var noBanner bool

func init() {
	scanCmd.Flags().BoolVar(&noBanner, "no-banner", false, "Do not print the banner")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	// la UI es dueña de la terminal: logs informativos solo si se pidieron
	if !cmd.Flags().Changed("log-level") && logx.ParseLevel(cfg.Log.Level) < logx.LevelWarn {
		logger.SetLevel(logx.LevelWarn)
	}

	if !noBanner {
		fmt.Fprint(out, ui.GetBanner(pterm.GetTerminalWidth()))
	}

	presenter := ui.NewPTermPresenter().WithWriter(out)
	defer presenter.Close()

	a, err := newApp(ctx, cfg, logger, presenter)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, ok := a.tools["dnsx"]; ok {
		if err := usecases.CheckResolvers(cfg.Resolvers); err != nil {
			return fmt.Errorf("%w (use --resolvers or disable dnsx)", err)
		}
	}

	scan, err := a.service.CreateTarget(ctx, args[0], cfg.RateLimit)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := a.service.RunScan(ctx, scan.ID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("scan %s interrupted after %s", scan.ID, time.Since(start).Round(time.Second))
		}
		return fmt.Errorf("scan %s failed: %w", scan.ID, err)
	}

	for _, exp := range exporters(cmd) {
		if err := exp.Export(scan, result.Scored); err != nil {
			return fmt.Errorf("%s output: %w", exp.Name(), err)
		}
	}

	fmt.Fprintf(out, "\nScan %s finished in %s\n", scan.ID, result.Duration.Round(time.Second))
	if result.ScoredPath != "" {
		fmt.Fprintf(out, "Scored results: %s\n", result.ScoredPath)
	}
	return nil
}

// exporters decide las salidas según la configuración.
func exporters(cmd *cobra.Command) []ports.Exporter {
	var exps []ports.Exporter
	if !cfg.Output.TableDisabled {
		exps = append(exps, output.NewTableExporter(cmd.OutOrStdout(), cfg.Output.TopN))
	}
	if cfg.Output.JSONPath != "" {
		exps = append(exps, output.NewJSONExporter(cfg.Output.JSONPath).WithWriter(cmd.OutOrStdout()))
	}
	return exps
}
