// internal/tools/sublist3r/sublist3r.go
// Package sublist3r wraps the Sublist3r search-engine enumerator.
package sublist3r

import (
	"context"
	"strconv"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/logx"
	"domscout/internal/tools/common"
)

const (
	toolName       = "sublist3r"
	outputFile     = "sublist3r.txt"
	defaultThreads = 50
)

// Sublist3r runs `sublist3r -d <target> -t <threads> -o sublist3r.txt`.
type Sublist3r struct {
	*common.BaseCLITool
	threads int
}

// New creates a Sublist3r adapter.
func New(logger logx.Logger, cfg ports.ToolConfig, threads int) *Sublist3r {
	if threads <= 0 {
		threads = defaultThreads
	}
	return &Sublist3r{
		BaseCLITool: common.NewBaseCLITool(logger,
			common.NewBaseCLIConfig(toolName, domain.PhaseEnumerating, cfg, toolName, "sublist3r.py")),
		threads: threads,
	}
}

// Invoke implements ports.Tool.
func (s *Sublist3r) Invoke(ctx context.Context, in ports.ToolInput) (ports.ToolOutput, error) {
	out := in.Path(outputFile)
	args := []string{"-d", in.Target, "-t", strconv.Itoa(s.threads), "-o", out}
	return s.RunLines(ctx, in, common.Command{Args: args, Dir: in.WorkDir}, out)
}
