// internal/tools/gospider/gospider.go
// Package gospider crawls the alive web services with gospider.
package gospider

import (
	"context"
	"strconv"
	"strings"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/logx"
	"domscout/internal/platform/validator"
	"domscout/internal/tools/common"
)

const (
	toolName   = "gospider"
	outputFile = "gospider.txt"
)

// Gospider runs `gospider -S alive_webservices.txt -c <c> -d <depth> --quiet`
// and keeps the in-scope URLs it prints.
type Gospider struct {
	*common.BaseCLITool

	concurrency int
	depth       int
}

// New creates the adapter.
func New(logger logx.Logger, cfg ports.ToolConfig, concurrency, depth int) *Gospider {
	if concurrency <= 0 {
		concurrency = 10
	}
	if depth <= 0 {
		depth = 1
	}
	return &Gospider{
		BaseCLITool: common.NewBaseCLITool(logger,
			common.NewBaseCLIConfig(toolName, domain.PhaseExtractingURLs, cfg, toolName)),
		concurrency: concurrency,
		depth:       depth,
	}
}

// RequiredInputs implements ports.InputConsumer.
func (g *Gospider) RequiredInputs() []string {
	return []string{domain.FileAliveServices}
}

// Invoke implements ports.Tool.
func (g *Gospider) Invoke(ctx context.Context, in ports.ToolInput) (ports.ToolOutput, error) {
	cmd := common.Command{
		Args: []string{
			"-S", in.Path(domain.FileAliveServices),
			"-c", strconv.Itoa(g.concurrency),
			"-d", strconv.Itoa(g.depth),
			"--quiet",
		},
		Dir: in.WorkDir,
	}
	return g.RunStdout(ctx, in, cmd, in.Path(outputFile), ScopeFilter(in.Target))
}

// ScopeFilter extracts the URL from a gospider line and drops it unless its
// host belongs to target. Without --quiet lines look like "[href] - <url>".
func ScopeFilter(target string) common.LineFilter {
	return func(line string) (string, bool) {
		u := line
		if i := strings.LastIndex(line, " - "); i >= 0 {
			u = strings.TrimSpace(line[i+3:])
		}
		if !validator.IsURL(u) {
			return "", false
		}
		return u, validator.InScope(validator.URLHost(u), target)
	}
}
