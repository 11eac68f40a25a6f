// internal/tools/dnsx/registry.go
package dnsx

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
		Description: "DNS resolution of discovered subdomains via ProjectDiscovery's dnsx",
		Stage:       domain.PhaseResolving,
		Binary:      toolName,
		Output:      domain.FileLiveSubdomains,
		Schema:      domain.SchemaLines,
	}); err != nil {
		logx.New().Warn("failed to register dnsx tool", "error", err.Error())
	}
}

func factory(cfg ports.ToolConfig, logger logx.Logger) (ports.Tool, error) {
	return New(logger, cfg, registry.GetIntConfig(cfg.Custom, "threads", 0)), nil
}
