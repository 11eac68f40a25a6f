// internal/tools/subfinder/subfinder.go
// Package subfinder wraps ProjectDiscovery's subfinder for passive subdomain enumeration.
package subfinder

import (
	"context"
	"strconv"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/logx"
	"domscout/internal/tools/common"
)

const (
	toolName   = "subfinder"
	outputFile = "subfinder.txt"
)

// Subfinder runs `subfinder -d <target> -all -silent -o subfinder.txt`.
type Subfinder struct {
	*common.BaseCLITool

	allSources bool
	threads    int
}

// New creates a Subfinder adapter.
func New(logger logx.Logger, cfg ports.ToolConfig, allSources bool, threads int) *Subfinder {
	return &Subfinder{
		BaseCLITool: common.NewBaseCLITool(logger,
			common.NewBaseCLIConfig(toolName, domain.PhaseEnumerating, cfg, toolName)),
		allSources: allSources,
		threads:    threads,
	}
}

// Invoke implements ports.Tool.
func (s *Subfinder) Invoke(ctx context.Context, in ports.ToolInput) (ports.ToolOutput, error) {
	out := in.Path(outputFile)
	return s.RunLines(ctx, in, common.Command{Args: s.buildArgs(in.Target, out), Dir: in.WorkDir}, out)
}

func (s *Subfinder) buildArgs(target, out string) []string {
	args := []string{"-d", target}
	if s.allSources {
		args = append(args, "-all")
	}
	if s.threads > 0 {
		args = append(args, "-t", strconv.Itoa(s.threads))
	}
	return append(args, "-silent", "-o", out)
}
