// cmd/domscout/scans.go
package main

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"domscout/internal/adapters/output"
)

var scansCmd = &cobra.Command{
	Use:   "scans",
	Short: "List the most recent scans",
	Args:  cobra.NoArgs,
	RunE:  runScans,
}

var statusCmd = &cobra.Command{
	Use:   "status <scan-id>",
	Short: "Show progress and per-tool status of a scan",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(scansCmd)
	rootCmd.AddCommand(statusCmd)
}

func runScans(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	scans, err := a.service.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(scans) == 0 {
		printf(cmd, "No scans yet.\n")
		return nil
	}

	data := pterm.TableData{{"ID", "Domain", "Status", "Created", "Subdomains", "URLs"}}
	for _, s := range scans {
		data = append(data, []string{
			s.ID,
			s.Domain,
			s.Status.String(),
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(s.SubdomainsCount),
			strconv.Itoa(s.URLsCount),
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	printf(cmd, "%s\n", table)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	info, err := a.service.Info(ctx, args[0])
	if err != nil {
		return err
	}
	states, err := a.service.ToolStatus(ctx, args[0])
	if err != nil {
		return err
	}

	p := info.Progress
	printf(cmd, "%s  %s  [%s]\n", info.Scan.ID, info.Scan.Domain, info.Scan.Status)
	printf(cmd, "Step %d/%d (%d%%): %s\n", p.Step, p.Total, p.Percent, p.Message)
	printf(cmd, "Subdomains: %d  Alive URLs: %d  Screenshots: %d\n\n",
		info.Stats.Subdomains, info.Stats.AliveURLs, info.Stats.Screenshots)
	return output.ToolStatusTable(cmd.OutOrStdout(), states)
}
