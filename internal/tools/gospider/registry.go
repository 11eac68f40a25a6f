// internal/tools/gospider/registry.go
package gospider

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
		Description: "Web crawling of alive services via gospider",
		Stage:       domain.PhaseExtractingURLs,
		Binary:      toolName,
		Output:      outputFile,
		Schema:      domain.SchemaLines,
	}); err != nil {
		logx.New().Warn("failed to register gospider tool", "error", err.Error())
	}
}

func factory(cfg ports.ToolConfig, logger logx.Logger) (ports.Tool, error) {
	concurrency := registry.GetIntConfig(cfg.Custom, "concurrency", 10)
	depth := registry.GetIntConfig(cfg.Custom, "depth", 1)
	return New(logger, cfg, concurrency, depth), nil
}
