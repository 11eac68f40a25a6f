// cmd/domscout/tools.go
package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"domscout/internal/platform/registry"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List pipeline tools and whether their binaries resolve",
	Args:  cobra.NoArgs,
	RunE:  runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

// availability es implementado por las herramientas que envuelven un binario.
type availability interface {
	Available() bool
}

func runTools(cmd *cobra.Command, _ []string) error {
	reg := registry.Global()
	built, err := reg.BuildAll(cfg.ToolConfigs(), logger)
	if err != nil {
		logger.Warn("some tools could not be built", "error", err.Error())
	}

	data := pterm.TableData{{"Tool", "Stage", "Binary", "Status"}}
	missing := 0
	for _, name := range reg.List() {
		meta, _ := reg.GetMetadata(name)
		status := "disabled"
		if tool, ok := built[name]; ok {
			status = "ok"
			if av, ok := tool.(availability); ok && !av.Available() {
				status = "missing"
				missing++
			}
		}
		data = append(data, []string{name, meta.Stage.String(), meta.Binary, status})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	printf(cmd, "%s\n", table)
	if missing > 0 {
		printf(cmd, "\n%d tool(s) missing; run `domscout install` or set tools.<name>.exec_path\n", missing)
	}
	return nil
}
