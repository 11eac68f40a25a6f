// internal/tools/dnsx/dnsx.go
// Package dnsx resolves the merged subdomain list with ProjectDiscovery's dnsx.
package dnsx

import (
	"context"
	"path/filepath"
	"strconv"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/logx"
	"domscout/internal/tools/common"
)

const toolName = "dnsx"

// DNSX runs `dnsx -l subdomains.txt -r <resolvers> -o live_subs.txt`.
type DNSX struct {
	*common.BaseCLITool
	threads int
}

// New creates the adapter.
func New(logger logx.Logger, cfg ports.ToolConfig, threads int) *DNSX {
	return &DNSX{
		BaseCLITool: common.NewBaseCLITool(logger,
			common.NewBaseCLIConfig(toolName, domain.PhaseResolving, cfg, toolName)),
		threads: threads,
	}
}

// RequiredInputs implements ports.InputConsumer.
func (d *DNSX) RequiredInputs() []string {
	return []string{domain.FileSubdomains}
}

// Invoke implements ports.Tool.
func (d *DNSX) Invoke(ctx context.Context, in ports.ToolInput) (ports.ToolOutput, error) {
	out := in.Path(domain.FileLiveSubdomains)
	cmd := common.Command{Args: d.buildArgs(in, out), Dir: in.WorkDir}
	return d.RunLines(ctx, in, cmd, out)
}

func (d *DNSX) buildArgs(in ports.ToolInput, out string) []string {
	args := []string{"-l", in.Path(domain.FileSubdomains)}
	if in.Resolvers != "" {
		resolvers := in.Resolvers
		if abs, err := filepath.Abs(resolvers); err == nil {
			resolvers = abs
		}
		args = append(args, "-r", resolvers)
	}
	if d.threads > 0 {
		args = append(args, "-t", strconv.Itoa(d.threads))
	}
	return append(args, "-silent", "-o", out)
}
