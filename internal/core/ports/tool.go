// internal/core/ports/tool.go
package ports

import (
	"context"
	"path/filepath"
	"time"

	"domscout/internal/core/domain"
)

// Tool es el port para cualquier herramienta externa del pipeline.
// Cada adapter envuelve un binario (o un paso interno como merge) y escribe
// sus resultados en archivos dentro del directorio de trabajo del scan.
type Tool interface {
	// Name retorna el nombre único de la herramienta (ej: "subfinder", "merge2")
	Name() string

	// Stage retorna la fase del pipeline a la que pertenece
	Stage() domain.Phase

	// Invoke ejecuta la herramienta. Un artifact vacío o inexistente no es error:
	// solo se retorna error si el comando no pudo lanzarse, o si terminó mal
	// y no dejó ningún artifact utilizable.
	Invoke(ctx context.Context, in ToolInput) (ToolOutput, error)
}

// InputConsumer es implementado por herramientas que leen artifacts de un
// stage anterior. Si todos los archivos requeridos faltan o están vacíos el
// scheduler no invoca la herramienta y registra un run completado con 0 resultados.
type InputConsumer interface {
	Tool

	// RequiredInputs retorna los nombres de archivo (relativos al WorkDir)
	RequiredInputs() []string
}

// EndpointSource es implementado por herramientas cuyos artifacts contienen
// endpoints HTTP (httpx, gowitness). El paso de parsing los combina y puntúa.
type EndpointSource interface {
	Tool

	// Endpoints lee los artifacts del scan y retorna un record por URL
	Endpoints(ctx context.Context, in ToolInput) ([]*domain.EndpointRecord, error)
}

// ToolInput contiene todo lo que una herramienta necesita para ejecutarse.
type ToolInput struct {
	ScanID         string
	Target         string
	WorkDir        string
	ScreenshotsDir string
	Resolvers      string
	RateLimit      int
}

// Path retorna la ruta de name dentro del directorio de trabajo.
func (in ToolInput) Path(name string) string {
	return filepath.Join(in.WorkDir, name)
}

// ToolOutput es el resultado exitoso de una herramienta.
type ToolOutput struct {
	// Artifacts handles de los archivos producidos (pueden no existir)
	Artifacts []domain.Artifact

	// Count entradas no vacías (líneas, registros JSON o filas)
	Count int

	// Results entradas legibles que se guardan en el Status/Result Cache
	Results []string
}

// Primary retorna el primer artifact, si existe.
func (o ToolOutput) Primary() (domain.Artifact, bool) {
	if len(o.Artifacts) == 0 {
		return domain.Artifact{}, false
	}
	return o.Artifacts[0], true
}

// ToolConfig contiene la configuración específica de una herramienta.
type ToolConfig struct {
	// Enabled indica si la herramienta está habilitada
	Enabled bool

	// ExecPath ruta al binario (vacío = buscar en PATH)
	ExecPath string

	// Timeout tiempo máximo de ejecución
	Timeout time.Duration

	// Args argumentos extra añadidos al comando
	Args []string

	// Custom configuración específica (chrome_path, threads, etc.)
	Custom map[string]interface{}
}

// DefaultToolConfig retorna una configuración por defecto.
func DefaultToolConfig() ToolConfig {
	return ToolConfig{
		Enabled: true,
		Timeout: 10 * time.Minute,
		Custom:  make(map[string]interface{}),
	}
}

// ToolMetadata contiene metadatos sobre una herramienta.
type ToolMetadata struct {
	Name        string
	Description string
	Stage       domain.Phase

	// Binary ejecutable externo requerido (vacío para pasos internos)
	Binary string

	// Output nombre del artifact principal dentro del directorio de trabajo
	Output string
	Schema domain.Schema
}
