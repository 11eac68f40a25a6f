// internal/tools/assetfinder/registry.go
package assetfinder

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
		Description: "Related domains and subdomains via assetfinder",
		Stage:       domain.PhaseEnumerating,
		Binary:      toolName,
		Output:      outputFile,
		Schema:      domain.SchemaLines,
	}); err != nil {
		logx.New().Warn("failed to register assetfinder tool", "error", err.Error())
	}
}

func factory(cfg ports.ToolConfig, logger logx.Logger) (ports.Tool, error) {
	return New(logger, cfg), nil
}
