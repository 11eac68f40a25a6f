// internal/tools/httpx/registry.go
package httpx

import (
	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/logx"
	"domscout/internal/platform/registry"
)

// Auto-registration on package import
func init() {
	if err := registry.Global().Register(toolName, factory, ports.ToolMetadata{
		Name:        toolName,
		Description: "HTTP probing of resolved hosts via ProjectDiscovery's httpx",
		Stage:       domain.PhaseProbing,
		Binary:      "httpx-toolkit",
		Output:      domain.FileHTTPXOutput,
		Schema:      domain.SchemaJSONL,
	}); err != nil {
		logx.New().Warn("failed to register httpx tool", "error", err.Error())
	}
}

func factory(cfg ports.ToolConfig, logger logx.Logger) (ports.Tool, error) {
	headers := registry.GetBoolConfig(cfg.Custom, "response_headers", true)
	threads := registry.GetIntConfig(cfg.Custom, "threads", 0)
	return New(logger, cfg, headers, threads), nil
}
