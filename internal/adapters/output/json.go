// internal/adapters/output/json.go
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
)

// sanitizeDomainName convierte un nombre de dominio en un nombre de archivo válido.
// Ejemplo: "example.com" -> "example_com"
func sanitizeDomainName(domain string) string {
	sanitized := strings.ReplaceAll(domain, ".", "_")
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, sanitized)
}

// JSONExporter escribe los resultados puntuados con el mismo formato que
// scored_results.json. Si path es un directorio se genera un nombre con el
// dominio y un timestamp; "-" escribe en el writer configurado (stdout).
type JSONExporter struct {
	path   string
	stdout io.Writer
	now    func() time.Time

	written string
}

var _ ports.Exporter = (*JSONExporter)(nil)

// NewJSONExporter crea un exporter hacia path.
func NewJSONExporter(path string) *JSONExporter {
	return &JSONExporter{path: path, stdout: os.Stdout, now: time.Now}
}

// WithWriter cambia el destino usado cuando path es "-".
func (e *JSONExporter) WithWriter(w io.Writer) *JSONExporter {
	e.stdout = w
	return e
}

// Name implementa ports.Exporter.
func (e *JSONExporter) Name() string { return "json" }

// Path retorna el último archivo escrito.
func (e *JSONExporter) Path() string { return e.written }

// Export implementa ports.Exporter.
func (e *JSONExporter) Export(scan *domain.Scan, results []domain.ScoredResult) error {
	if results == nil {
		results = []domain.ScoredResult{}
	}
	if e.path == "-" {
		return encode(e.stdout, results)
	}

	target := e.path
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		name := fmt.Sprintf("domscout_%s_%s.json", sanitizeDomainName(scan.Domain), e.now().Format("20060102_150405"))
		target = filepath.Join(target, name)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := encode(f, results); err != nil {
		return err
	}
	e.written = target
	return nil
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
