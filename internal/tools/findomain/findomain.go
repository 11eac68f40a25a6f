// internal/tools/findomain/findomain.go
// Package findomain wraps findomain. It has no output flag for plain lists,
// so stdout is streamed into findomain.txt.
package findomain

import (
	"context"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/logx"
	"domscout/internal/platform/validator"
	"domscout/internal/tools/common"
)

const (
	toolName   = "findomain"
	outputFile = "findomain.txt"
)

// Findomain runs `findomain --quiet -t <target>`.
type Findomain struct {
	*common.BaseCLITool
}

// New creates a Findomain adapter.
func New(logger logx.Logger, cfg ports.ToolConfig) *Findomain {
	return &Findomain{
		BaseCLITool: common.NewBaseCLITool(logger,
			common.NewBaseCLIConfig(toolName, domain.PhaseEnumerating, cfg, toolName)),
	}
}

// Invoke implements ports.Tool.
func (f *Findomain) Invoke(ctx context.Context, in ports.ToolInput) (ports.ToolOutput, error) {
	cmd := common.Command{Args: []string{"--quiet", "-t", in.Target}, Dir: in.WorkDir}
	return f.RunStdout(ctx, in, cmd, in.Path(outputFile), inScope(in.Target))
}

// inScope drops banner or error lines findomain prints on stdout.
func inScope(target string) common.LineFilter {
	return func(line string) (string, bool) {
		return line, validator.IsDomain(line) && validator.InScope(line, target)
	}
}
