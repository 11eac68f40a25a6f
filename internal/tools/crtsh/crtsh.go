// internal/tools/crtsh/crtsh.go
// Package crtsh queries the crt.sh certificate transparency search.
package crtsh

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/errors"
	"domscout/internal/platform/httpclient"
	"domscout/internal/platform/lines"
	"domscout/internal/platform/logx"
	"domscout/internal/tools/common"
)

const (
	toolName       = "crtsh"
	outputFile     = "crtsh.txt"
	defaultBaseURL = "https://crt.sh"
)

// certRecord es una entrada del JSON de crt.sh. Solo interesa name_value,
// que puede traer varios nombres separados por saltos de línea.
type certRecord struct {
	NameValue string `json:"name_value"`
}

// CRTSh descarga los certificados de %.<target> con curl y escribe un nombre
// por línea en crtsh.txt, sin el prefijo "*.". Si curl no está instalado usa
// el cliente HTTP interno.
type CRTSh struct {
	*common.BaseCLITool

	baseURL string
	client  *httpclient.Client
}

// New crea el adapter. client puede ser nil para deshabilitar el fallback.
func New(logger logx.Logger, cfg ports.ToolConfig, baseURL string, client *httpclient.Client) *CRTSh {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &CRTSh{
		BaseCLITool: common.NewBaseCLITool(logger,
			common.NewBaseCLIConfig(toolName, domain.PhaseEnumerating, cfg, "curl")),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// QueryURL retorna la URL de búsqueda para target.
func (c *CRTSh) QueryURL(target string) string {
	return fmt.Sprintf("%s/?q=%%25.%s&output=json", c.baseURL, target)
}

// Invoke implements ports.Tool.
func (c *CRTSh) Invoke(ctx context.Context, in ports.ToolInput) (ports.ToolOutput, error) {
	url := c.QueryURL(in.Target)

	body, runErr := c.fetchCurl(ctx, url)
	if domain.IsToolError(runErr, domain.ToolErrorNotFound) && c.client != nil {
		c.Logger().Debug("curl not available, using built-in HTTP client")
		body, runErr = c.fetchNative(ctx, url)
	}
	if domain.IsToolError(runErr, domain.ToolErrorNotFound) || domain.IsToolError(runErr, domain.ToolErrorLaunch) {
		return ports.ToolOutput{}, runErr
	}

	names, err := ParseNames(body)
	if err != nil {
		// crt.sh responde HTML cuando está saturado
		c.Logger().Warn("crt.sh returned a non-JSON body", "error", err.Error(), "bytes", len(body))
	}

	path := in.Path(outputFile)
	if err := lines.Write(path, names); err != nil {
		return ports.ToolOutput{}, domain.NewToolError(toolName, domain.ToolErrorExit, err)
	}
	out, err := c.LinesOutput(in, path)
	if err != nil {
		return out, domain.NewToolError(toolName, domain.ToolErrorExit, err)
	}
	return c.Finish(out, runErr)
}

func (c *CRTSh) fetchCurl(ctx context.Context, url string) ([]byte, error) {
	buf := &common.BufferHandler{}
	err := c.Execute(ctx, common.Command{Args: []string{"-s", url}, Handler: buf})
	return buf.Bytes(), err
}

func (c *CRTSh) fetchNative(ctx context.Context, url string) ([]byte, error) {
	if c.Timeout() > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout())
		defer cancel()
	}
	body, err := c.client.FetchJSON(ctx, url)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, domain.NewToolError(toolName, domain.ToolErrorTimeout, err)
		}
		return nil, domain.NewToolError(toolName, domain.ToolErrorExit, err)
	}
	return body, nil
}

// ParseNames extrae los nombres de la respuesta JSON de crt.sh, en orden y
// con repetidos; el merge posterior deduplica. Un body vacío no es error.
func ParseNames(body []byte) ([]string, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}

	var records []certRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, errors.Wrap(err, "parse crt.sh response")
	}

	names := make([]string, 0, len(records))
	for _, rec := range records {
		for _, name := range strings.Split(rec.NameValue, "\n") {
			name = strings.TrimSpace(strings.ReplaceAll(name, "*.", ""))
			if name != "" {
				names = append(names, name)
			}
		}
	}
	return names, nil
}
