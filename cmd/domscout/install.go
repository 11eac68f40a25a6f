// cmd/domscout/install.go
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"domscout/internal/installer"
	"domscout/internal/platform/registry"
)

var installCmd = &cobra.Command{
	Use:   "install [tool...]",
	Short: "Install the external binaries used by the pipeline",
	Long: `Check and install the binaries the pipeline shells out to. Go tools are
installed with go install, sublist3r with pip and findomain from its latest
GitHub release. Without arguments every registered tool is considered.

Examples:
  domscout install --check
  domscout install httpx dnsx
  domscout install --force --dir /usr/local/bin findomain`,
	RunE: runInstall,
}

var (
	installCheckOnly bool
	installForce     bool
	installDir       string
)

func init() {
	installCmd.Flags().BoolVar(&installCheckOnly, "check", false, "Only check dependencies, do not install")
	installCmd.Flags().BoolVar(&installForce, "force", false, "Reinstall even if already installed")
	installCmd.Flags().StringVar(&installDir, "dir", "", "Installation directory (default: GOBIN or GOPATH/bin)")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	names := args
	if len(names) == 0 {
		names = registry.Global().List()
	}
	deps := installer.Select(installer.DefaultCatalog(), names)
	if len(deps) == 0 {
		return usageError(fmt.Errorf("no installable tools among %s", strings.Join(names, ", ")))
	}

	sys, err := installer.DetectSystem(ctx, installDir)
	if err != nil {
		return err
	}
	inst := installer.New(installer.Options{
		System: sys,
		Logger: logger,
		Progress: func(tool, msg string) {
			pterm.Info.Printfln("%s: %s", tool, msg)
		},
	})

	start := time.Now()
	var results []installer.Result
	if installCheckOnly {
		results = inst.Check(deps)
	} else {
		results = inst.Install(ctx, deps, installForce)
	}

	if err := renderInstallResults(cmd, results); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Status == installer.StatusFailed || (installCheckOnly && r.Status == installer.StatusMissing) {
			failed++
		}
	}
	if !installCheckOnly {
		printf(cmd, "\nDone in %s\n", time.Since(start).Round(time.Second))
		if !installer.IsInPath(sys.InstallDir, sys.PathEntries) {
			pterm.Warning.Println(installer.PathWarning(sys.InstallDir))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d dependencies missing or failed", failed)
	}
	return nil
}

func renderInstallResults(cmd *cobra.Command, results []installer.Result) error {
	data := pterm.TableData{{"Tool", "Method", "Status", "Details"}}
	for _, r := range results {
		data = append(data, []string{
			r.Dependency.Tool,
			string(r.Dependency.Method),
			string(r.Status),
			r.Message,
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	printf(cmd, "%s\n", table)
	return nil
}
