// internal/tools/common/handlers.go
package common

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"domscout/internal/platform/errors"
)

// LineFilter transforms a stdout line. ok=false drops it.
type LineFilter func(line string) (out string, ok bool)

// FileHandler writes stdout lines to a file, one per line.
// Blank lines are dropped. The file is created lazily on Open.
type FileHandler struct {
	path   string
	filter LineFilter

	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	count  int
}

// NewFileHandler creates a handler that writes to path.
func NewFileHandler(path string, filter LineFilter) *FileHandler {
	return &FileHandler{path: path, filter: filter}
}

// Open creates (truncating) the output file.
func (h *FileHandler) Open() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return errors.Wrap(err, "create output dir")
	}
	f, err := os.Create(h.path)
	if err != nil {
		return errors.Wrap(err, "create output file")
	}
	h.file = f
	h.writer = bufio.NewWriter(f)
	h.count = 0
	return nil
}

// ProcessLine implements OutputHandler.
func (h *FileHandler) ProcessLine(line []byte) error {
	s := strings.TrimSpace(string(line))
	if s == "" {
		return nil
	}
	if h.filter != nil {
		var ok bool
		if s, ok = h.filter(s); !ok {
			return nil
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.writer == nil {
		return errors.New("file handler not opened")
	}
	if _, err := h.writer.WriteString(s + "\n"); err != nil {
		return err
	}
	h.count++
	return nil
}

// Finalize implements OutputHandler. Safe to call more than once.
func (h *FileHandler) Finalize() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.file == nil {
		return nil
	}
	flushErr := h.writer.Flush()
	closeErr := h.file.Close()
	h.file, h.writer = nil, nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// Count returns the number of lines written.
func (h *FileHandler) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// BufferHandler keeps stdout in memory.
type BufferHandler struct {
	mu    sync.Mutex
	lines []string
}

// ProcessLine implements OutputHandler.
func (h *BufferHandler) ProcessLine(line []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lines = append(h.lines, string(line))
	return nil
}

// Finalize implements OutputHandler.
func (h *BufferHandler) Finalize() error { return nil }

// Lines returns a copy of the captured lines.
func (h *BufferHandler) Lines() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.lines))
	copy(out, h.lines)
	return out
}

// Bytes returns the captured output joined by newlines.
func (h *BufferHandler) Bytes() []byte {
	return []byte(strings.Join(h.Lines(), "\n"))
}
