// internal/tools/sublist3r/registry.go
package sublist3r

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
		Description: "Search engine subdomain enumeration via Sublist3r",
		Stage:       domain.PhaseEnumerating,
		Binary:      toolName,
		Output:      outputFile,
		Schema:      domain.SchemaLines,
	}); err != nil {
		logx.New().Warn("failed to register sublist3r tool", "error", err.Error())
	}
}

func factory(cfg ports.ToolConfig, logger logx.Logger) (ports.Tool, error) {
	return New(logger, cfg, registry.GetIntConfig(cfg.Custom, "threads", defaultThreads)), nil
}
