// internal/tools/gau/registry.go
package gau

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
		Description: "Known URLs from Wayback, Common Crawl, OTX and URLScan via gau",
		Stage:       domain.PhaseExtractingURLs,
		Binary:      toolName,
		Output:      outputFile,
		Schema:      domain.SchemaLines,
	}); err != nil {
		logx.New().Warn("failed to register gau tool", "error", err.Error())
	}
}

func factory(cfg ports.ToolConfig, logger logx.Logger) (ports.Tool, error) {
	threads := registry.GetIntConfig(cfg.Custom, "threads", 0)
	blacklist := registry.GetSliceConfig(cfg.Custom, "blacklist", DefaultBlacklist)
	return New(logger, cfg, threads, blacklist), nil
}
