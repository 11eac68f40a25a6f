// internal/core/domain/artifact.go
package domain

import (
	"os"
	"path/filepath"
)

// Nombres de los artifacts intermedios dentro del directorio de trabajo.
const (
	FileSubdomains     = "subdomains.txt"
	FileLiveSubdomains = "live_subs.txt"
	FileHTTPXOutput    = "httpx_output.json"
	FileAliveServices  = "alive_webservices.txt"
	FileURLs           = "urls.txt"
	FileGowitnessDB    = "gowitness.sqlite3"
	FileScoredResults  = "scored_results.json"
)

// Artifact es el handle tipado de un archivo producido por un Tool Run.
// Identificado por (scan_id, stage, tool).
type Artifact struct {
	ScanID string `json:"scan_id"`
	Stage  Phase  `json:"stage"`
	Tool   string `json:"tool"`
	Path   string `json:"path"`
	Schema Schema `json:"schema"`
}

// NewArtifact crea un handle para path.
func NewArtifact(scanID string, stage Phase, tool, path string, schema Schema) Artifact {
	return Artifact{
		ScanID: scanID,
		Stage:  stage,
		Tool:   tool,
		Path:   path,
		Schema: schema,
	}
}

// Name retorna el nombre base del archivo.
func (a Artifact) Name() string {
	return filepath.Base(a.Path)
}

// Exists indica si el archivo existe y no es un directorio.
func (a Artifact) Exists() bool {
	if a.Path == "" {
		return false
	}
	info, err := os.Stat(a.Path)
	return err == nil && !info.IsDir()
}

// IsEmpty indica si el archivo no existe o tiene tamaño cero.
func (a Artifact) IsEmpty() bool {
	if a.Path == "" {
		return true
	}
	info, err := os.Stat(a.Path)
	return err != nil || info.IsDir() || info.Size() == 0
}

// Key retorna la clave (scan_id, stage, tool) como string.
func (a Artifact) Key() string {
	return a.ScanID + "/" + string(a.Stage) + "/" + a.Tool
}
