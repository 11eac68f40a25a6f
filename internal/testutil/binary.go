// internal/testutil/binary.go
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// FakeBinary escribe un script sh ejecutable llamado name en un directorio
// temporal y retorna su ruta. Antes de body el script guarda sus argumentos,
// uno por línea, en <ruta>.args.
func FakeBinary(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake binaries need a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), name)
	script := strings.Join([]string{
		"#!/bin/sh",
		`for a in "$@"; do printf '%s\n' "$a"; done > "$0.args"`,
		body,
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}
	return path
}

// BinaryArgs retorna los argumentos con los que se invocó el último FakeBinary.
func BinaryArgs(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path + ".args")
	if err != nil {
		t.Fatalf("read fake binary args: %v", err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// OutputFlagScript es el cuerpo de un FakeBinary que escribe content en el
// archivo indicado por flag (ej: "-o").
func OutputFlagScript(flag, content string) string {
	return `out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "` + flag + `" ]; then out="$2"; fi
  shift
done
[ -n "$out" ] && printf '` + content + `' > "$out"
exit 0`
}
