// internal/tools/httpx/httpx.go
// Package httpx probes resolved hosts with ProjectDiscovery's httpx and
// produces the jsonl artifact plus the list of alive web services.
package httpx

import (
	"context"
	"strconv"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/errors"
	"domscout/internal/platform/lines"
	"domscout/internal/platform/logx"
	"domscout/internal/tools/common"
)

const toolName = "httpx"

// HTTPX runs `httpx -rl <rate> -silent -status-code -json -o httpx_output.json`
// with live_subs.txt on stdin, then writes alive_webservices.txt.
type HTTPX struct {
	*common.BaseCLITool

	responseHeaders bool
	threads         int
}

// New creates the adapter. Binaries are tried in order: configured path,
// httpx-toolkit (Kali package name), httpx.
func New(logger logx.Logger, cfg ports.ToolConfig, responseHeaders bool, threads int) *HTTPX {
	return &HTTPX{
		BaseCLITool: common.NewBaseCLITool(logger,
			common.NewBaseCLIConfig(toolName, domain.PhaseProbing, cfg, "httpx-toolkit", "httpx")),
		responseHeaders: responseHeaders,
		threads:         threads,
	}
}

// RequiredInputs implements ports.InputConsumer.
func (h *HTTPX) RequiredInputs() []string {
	return []string{domain.FileLiveSubdomains}
}

// Invoke implements ports.Tool.
func (h *HTTPX) Invoke(ctx context.Context, in ports.ToolInput) (ports.ToolOutput, error) {
	jsonPath := in.Path(domain.FileHTTPXOutput)

	runErr := h.Execute(ctx, common.Command{
		Args:      h.buildArgs(in.RateLimit, jsonPath),
		Dir:       in.WorkDir,
		StdinFile: in.Path(domain.FileLiveSubdomains),
	})
	if domain.IsToolError(runErr, domain.ToolErrorNotFound) || domain.IsToolError(runErr, domain.ToolErrorLaunch) {
		return ports.ToolOutput{}, runErr
	}

	records, err := ParseFile(jsonPath, h.Logger())
	if err != nil {
		return ports.ToolOutput{}, domain.NewToolError(toolName, domain.ToolErrorExit, errors.Wrap(err, "parse httpx output"))
	}

	urls := URLs(records)
	alivePath := in.Path(domain.FileAliveServices)
	if err := lines.Write(alivePath, urls); err != nil {
		return ports.ToolOutput{}, domain.NewToolError(toolName, domain.ToolErrorExit, errors.Wrap(err, "write alive services"))
	}

	out := ports.ToolOutput{
		Artifacts: []domain.Artifact{
			h.Artifact(in, jsonPath, domain.SchemaJSONL),
			h.Artifact(in, alivePath, domain.SchemaLines),
		},
		Count:   len(records),
		Results: urls,
	}
	return h.FinishArtifact(out, runErr)
}

// Endpoints implements ports.EndpointSource.
func (h *HTTPX) Endpoints(ctx context.Context, in ports.ToolInput) ([]*domain.EndpointRecord, error) {
	records, err := ParseFile(in.Path(domain.FileHTTPXOutput), h.Logger())
	if err != nil {
		return nil, err
	}
	return Endpoints(records), nil
}

func (h *HTTPX) buildArgs(rateLimit int, out string) []string {
	if rateLimit <= 0 {
		rateLimit = domain.DefaultRateLimit
	}
	args := []string{"-rl", strconv.Itoa(rateLimit), "-silent", "-status-code", "-json", "-o", out}
	if h.threads > 0 {
		args = append(args, "-threads", strconv.Itoa(h.threads))
	}
	if h.responseHeaders {
		args = append(args, "-include-response-header")
	}
	return args
}
