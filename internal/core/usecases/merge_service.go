// internal/core/usecases/merge_service.go
package usecases

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/errors"
	"domscout/internal/platform/lines"
	"domscout/internal/platform/logx"
)

// MergeService combina listas de líneas de varias herramientas en un único
// conjunto ordenado. La clave es el string exacto tras recortar espacios:
// "B.example.com" y "b.example.com" son entradas distintas.
type MergeService struct {
	logger logx.Logger
}

// NewMergeService crea una nueva instancia del servicio.
func NewMergeService(logger logx.Logger) *MergeService {
	if logger == nil {
		logger = logx.NewNop()
	}
	return &MergeService{
		logger: logger.With("component", "merge_service"),
	}
}

// Merge deduplica y ordena las líneas de todas las listas.
// Las líneas en blanco se descartan.
func (m *MergeService) Merge(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, list := range lists {
		for _, line := range list {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if _, dup := seen[line]; dup {
				continue
			}
			seen[line] = struct{}{}
			out = append(out, line)
		}
	}
	sort.Strings(out)
	return out
}

// MergeFiles lee los archivos candidatos en orden (los que faltan se toleran),
// escribe el conjunto ordenado en output y lo retorna. Si la lectura de un
// archivo falla a mitad, las líneas leídas hasta el error se conservan.
// La salida es idéntica byte a byte para las mismas entradas.
func (m *MergeService) MergeFiles(inputs []string, output string) ([]string, error) {
	lists := make([][]string, 0, len(inputs))
	for _, path := range inputs {
		entries, err := lines.Read(path)
		if err != nil {
			m.logger.Warn("merge input read failed, keeping lines read so far",
				"file", path, "kept", len(entries), "error", err.Error())
		}
		lists = append(lists, entries)
	}

	merged := m.Merge(lists...)
	if err := lines.Write(output, merged); err != nil {
		return nil, errors.Wrapf(err, "write %s", filepath.Base(output))
	}

	m.logger.Debug("merged files", "inputs", len(inputs), "output", filepath.Base(output), "count", len(merged))
	return merged, nil
}

// MergeTool expone un paso de merge como herramienta del pipeline, para que
// tenga estado propio en la tabla y pueda re-ejecutarse desde la API.
type MergeTool struct {
	name    string
	stage   domain.Phase
	inputs  []string
	output  string
	service *MergeService
}

// NewMergeTool crea un paso de merge que combina inputs en output
// (nombres relativos al directorio de trabajo).
func NewMergeTool(name string, stage domain.Phase, inputs []string, output string, service *MergeService) *MergeTool {
	return &MergeTool{
		name:    name,
		stage:   stage,
		inputs:  inputs,
		output:  output,
		service: service,
	}
}

// NewSubdomainMergeTool combina las listas de los enumeradores en subdomains.txt.
func NewSubdomainMergeTool(enumerators []string, service *MergeService) *MergeTool {
	inputs := make([]string, 0, len(enumerators))
	for _, name := range enumerators {
		inputs = append(inputs, name+".txt")
	}
	return NewMergeTool(ToolMerge, domain.PhaseMerging, inputs, domain.FileSubdomains, service)
}

// NewURLMergeTool combina los servicios vivos y las URLs extraídas en urls.txt.
func NewURLMergeTool(extractors []string, service *MergeService) *MergeTool {
	inputs := []string{domain.FileAliveServices}
	for _, name := range extractors {
		inputs = append(inputs, name+".txt")
	}
	return NewMergeTool(ToolMergeURLs, domain.PhaseMergingURLs, inputs, domain.FileURLs, service)
}

// Name implementa ports.Tool.
func (t *MergeTool) Name() string { return t.name }

// Stage implementa ports.Tool.
func (t *MergeTool) Stage() domain.Phase { return t.stage }

// Inputs retorna los nombres de archivo que combina.
func (t *MergeTool) Inputs() []string {
	return append([]string(nil), t.inputs...)
}

// Invoke implementa ports.Tool.
func (t *MergeTool) Invoke(ctx context.Context, in ports.ToolInput) (ports.ToolOutput, error) {
	if err := ctx.Err(); err != nil {
		return ports.ToolOutput{}, domain.NewToolError(t.name, domain.ToolErrorLaunch, err)
	}

	paths := make([]string, 0, len(t.inputs))
	for _, name := range t.inputs {
		paths = append(paths, in.Path(name))
	}
	outPath := in.Path(t.output)

	merged, err := t.service.MergeFiles(paths, outPath)
	if err != nil {
		return ports.ToolOutput{}, domain.NewToolError(t.name, domain.ToolErrorExit, err)
	}

	return ports.ToolOutput{
		Artifacts: []domain.Artifact{domain.NewArtifact(in.ScanID, t.stage, t.name, outPath, domain.SchemaLines)},
		Count:     len(merged),
		Results:   merged,
	}, nil
}
