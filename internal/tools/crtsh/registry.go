// internal/tools/crtsh/registry.go
package crtsh

import (
	"time"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/httpclient"
	"domscout/internal/platform/logx"
	"domscout/internal/platform/registry"
)

// Auto-registro al importar el package
func init() {
	if err := registry.Global().Register(toolName, factory, ports.ToolMetadata{
		Name:        toolName,
		Description: "Certificate Transparency log search via crt.sh",
		Stage:       domain.PhaseEnumerating,
		Binary:      "curl",
		Output:      outputFile,
		Schema:      domain.SchemaLines,
	}); err != nil {
		logx.New().Warn("failed to register crtsh tool", "error", err.Error())
	}
}

func factory(cfg ports.ToolConfig, logger logx.Logger) (ports.Tool, error) {
	baseURL := registry.GetStringConfig(cfg.Custom, "base_url", defaultBaseURL)

	var client *httpclient.Client
	if registry.GetBoolConfig(cfg.Custom, "http_fallback", true) {
		client = httpclient.New(httpclient.Config{
			Timeout:      registry.GetDurationConfig(cfg.Custom, "request_timeout", 60*time.Second),
			MaxRetries:   registry.GetIntConfig(cfg.Custom, "max_retries", 2),
			RetryBackoff: 2 * time.Second,
			// crt.sh no documenta límites; una request cada 2s
			RateLimit: 0.5,
		}, logger)
	}
	return New(logger, cfg, baseURL, client), nil
}
