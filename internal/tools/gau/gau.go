// internal/tools/gau/gau.go
// Package gau fetches historical URLs for the live hosts with getallurls (gau).
package gau

import (
	"context"
	"strconv"
	"strings"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/logx"
	"domscout/internal/tools/common"
)

const (
	toolName   = "gau"
	outputFile = "gau.txt"
)

// DefaultBlacklist son extensiones estáticas que no aportan al scoring.
var DefaultBlacklist = []string{"png", "jpg", "jpeg", "gif", "svg", "ico", "css", "woff", "woff2", "ttf", "eot", "mp4"}

// GAU ejecuta `gau --subs --o gau.txt` con live_subs.txt por stdin.
type GAU struct {
	*common.BaseCLITool

	threads   int
	blacklist []string
}

// New crea el adapter. Se prueban gau y getallurls (nombre en Kali).
func New(logger logx.Logger, cfg ports.ToolConfig, threads int, blacklist []string) *GAU {
	return &GAU{
		BaseCLITool: common.NewBaseCLITool(logger,
			common.NewBaseCLIConfig(toolName, domain.PhaseExtractingURLs, cfg, "gau", "getallurls")),
		threads:   threads,
		blacklist: blacklist,
	}
}

// RequiredInputs implements ports.InputConsumer.
func (g *GAU) RequiredInputs() []string {
	return []string{domain.FileLiveSubdomains}
}

// Invoke implements ports.Tool.
func (g *GAU) Invoke(ctx context.Context, in ports.ToolInput) (ports.ToolOutput, error) {
	out := in.Path(outputFile)
	cmd := common.Command{
		Args:      g.buildArgs(out),
		Dir:       in.WorkDir,
		StdinFile: in.Path(domain.FileLiveSubdomains),
	}
	return g.RunLines(ctx, in, cmd, out)
}

func (g *GAU) buildArgs(out string) []string {
	args := []string{"--subs"}
	if g.threads > 0 {
		args = append(args, "--threads", strconv.Itoa(g.threads))
	}
	if len(g.blacklist) > 0 {
		args = append(args, "--blacklist", strings.Join(g.blacklist, ","))
	}
	return append(args, "--o", out)
}
