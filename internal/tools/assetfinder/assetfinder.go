// internal/tools/assetfinder/assetfinder.go
// Package assetfinder wraps tomnomnom's assetfinder.
package assetfinder

import (
	"context"
	"strings"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/logx"
	"domscout/internal/platform/validator"
	"domscout/internal/tools/common"
)

const (
	toolName   = "assetfinder"
	outputFile = "assetfinder.txt"
)

// Assetfinder runs `assetfinder -subs-only <target>` and keeps stdout.
type Assetfinder struct {
	*common.BaseCLITool
}

// New creates an Assetfinder adapter.
func New(logger logx.Logger, cfg ports.ToolConfig) *Assetfinder {
	return &Assetfinder{
		BaseCLITool: common.NewBaseCLITool(logger,
			common.NewBaseCLIConfig(toolName, domain.PhaseEnumerating, cfg, toolName)),
	}
}

// Invoke implements ports.Tool.
func (a *Assetfinder) Invoke(ctx context.Context, in ports.ToolInput) (ports.ToolOutput, error) {
	cmd := common.Command{Args: []string{"-subs-only", in.Target}, Dir: in.WorkDir}
	return a.RunStdout(ctx, in, cmd, in.Path(outputFile), func(line string) (string, bool) {
		// assetfinder a veces emite wildcards
		line = strings.TrimPrefix(line, "*.")
		return line, validator.InScope(line, in.Target)
	})
}
