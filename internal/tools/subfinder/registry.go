// internal/tools/subfinder/registry.go
package subfinder

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
		Description: "Multi-source passive subdomain discovery via ProjectDiscovery's subfinder",
		Stage:       domain.PhaseEnumerating,
		Binary:      toolName,
		Output:      outputFile,
		Schema:      domain.SchemaLines,
	}); err != nil {
		logx.New().Warn("failed to register subfinder tool", "error", err.Error())
	}
}

func factory(cfg ports.ToolConfig, logger logx.Logger) (ports.Tool, error) {
	all := registry.GetBoolConfig(cfg.Custom, "all", true)
	threads := registry.GetIntConfig(cfg.Custom, "threads", 0)
	return New(logger, cfg, all, threads), nil
}
