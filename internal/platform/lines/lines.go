// internal/platform/lines/lines.go
package lines

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// maxLine acota el tamaño de una línea (los JSON de httpx pueden ser largos).
const maxLine = 10 * 1024 * 1024

// Read retorna las líneas no vacías (recortadas) de path.
// Un archivo inexistente retorna una lista vacía sin error.
func Read(path string) ([]string, error) {
	var out []string
	err := Each(path, func(line string) error {
		out = append(out, line)
		return nil
	})
	return out, err
}

// Each invoca fn por cada línea no vacía de path. Un error de fn detiene la lectura.
func Each(path string, fn func(line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLine)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Count retorna el número de líneas no vacías de path.
func Count(path string) (int, error) {
	n := 0
	err := Each(path, func(string) error {
		n++
		return nil
	})
	return n, err
}

// Write escribe una entrada por línea, cada una terminada en '\n',
// creando los directorios padres.
func Write(path string, entries []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e)
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
