// internal/tools/gowitness/registry.go
package gowitness

import (
	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/logx"
	"domscout/internal/platform/registry"
)

// Auto-registro al importar el package
func init() {
	if err := registry.Global().Register(toolName, factory, ports.ToolMetadata{
		Name:        toolName,
		Description: "Headless Chrome screenshots via gowitness",
		Stage:       domain.PhaseScreenshotting,
		Binary:      toolName,
		Output:      domain.FileGowitnessDB,
		Schema:      domain.SchemaSQLite,
	}); err != nil {
		logx.New().Warn("failed to register gowitness tool", "error", err.Error())
	}
}

func factory(cfg ports.ToolConfig, logger logx.Logger) (ports.Tool, error) {
	def := DefaultOptions()
	return New(logger, cfg, Options{
		Threads:    registry.GetIntConfig(cfg.Custom, "threads", def.Threads),
		Delay:      registry.GetIntConfig(cfg.Custom, "delay", def.Delay),
		Timeout:    registry.GetIntConfig(cfg.Custom, "timeout", def.Timeout),
		ChromePath: registry.GetStringConfig(cfg.Custom, "chrome_path", ""),
	}), nil
}
