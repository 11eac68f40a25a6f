// internal/testutil/fakes.go
package testutil

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/lines"
)

// FakeTool es una herramienta en memoria para tests: escribe Lines en
// Output dentro del directorio de trabajo y retorna Err.
type FakeTool struct {
	ToolName  string
	ToolStage domain.Phase

	// Inputs archivos requeridos (ver ports.InputConsumer)
	Inputs []string

	Output string
	Lines  []string
	Err    error

	// Panic hace que Invoke entre en pánico con este valor
	Panic any

	// Block, si no es nil, demora la herramienta hasta que se cierre
	// (ignora la cancelación del contexto)
	Block chan struct{}

	// InvokeFn reemplaza el comportamiento por defecto
	InvokeFn func(ctx context.Context, in ports.ToolInput) (ports.ToolOutput, error)

	calls atomic.Int32
}

// NewFakeTool crea una herramienta que escribe lines en <name>.txt.
func NewFakeTool(name string, stage domain.Phase, lines ...string) *FakeTool {
	return &FakeTool{
		ToolName:  name,
		ToolStage: stage,
		Output:    name + ".txt",
		Lines:     lines,
	}
}

// Name implementa ports.Tool.
func (f *FakeTool) Name() string { return f.ToolName }

// Stage implementa ports.Tool.
func (f *FakeTool) Stage() domain.Phase { return f.ToolStage }

// RequiredInputs implementa ports.InputConsumer.
func (f *FakeTool) RequiredInputs() []string { return f.Inputs }

// Calls retorna cuántas veces se invocó la herramienta.
func (f *FakeTool) Calls() int { return int(f.calls.Load()) }

// Invoke implementa ports.Tool.
func (f *FakeTool) Invoke(ctx context.Context, in ports.ToolInput) (ports.ToolOutput, error) {
	f.calls.Add(1)
	if f.Block != nil {
		<-f.Block
	}
	if f.Panic != nil {
		panic(f.Panic)
	}
	if f.InvokeFn != nil {
		return f.InvokeFn(ctx, in)
	}

	var out ports.ToolOutput
	if f.Output != "" {
		path := in.Path(f.Output)
		if err := WriteLines(path, f.Lines...); err != nil {
			return out, err
		}
		out.Artifacts = []domain.Artifact{domain.NewArtifact(in.ScanID, f.ToolStage, f.ToolName, path, domain.SchemaLines)}
	}
	if f.Err != nil {
		return out, f.Err
	}
	out.Count = len(f.Lines)
	out.Results = append([]string{}, f.Lines...)
	return out, nil
}

// FakeEndpointTool además expone endpoints (ver ports.EndpointSource).
type FakeEndpointTool struct {
	*FakeTool
	Records []*domain.EndpointRecord
}

// Endpoints implementa ports.EndpointSource. Retorna copias.
func (f *FakeEndpointTool) Endpoints(ctx context.Context, in ports.ToolInput) ([]*domain.EndpointRecord, error) {
	out := make([]*domain.EndpointRecord, 0, len(f.Records))
	for _, rec := range f.Records {
		cp := *rec
		if rec.Headers != nil {
			cp.Headers = make(map[string]string, len(rec.Headers))
			for k, v := range rec.Headers {
				cp.Headers[k] = v
			}
		}
		out = append(out, &cp)
	}
	return out, nil
}

// RecordingNotifier guarda cada evento recibido.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []ports.Event
}

// Notify implementa ports.Notifier.
func (r *RecordingNotifier) Notify(ctx context.Context, ev ports.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events retorna una copia de los eventos.
func (r *RecordingNotifier) Events() []ports.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.Event(nil), r.events...)
}

// Count retorna cuántos eventos de tipo t se recibieron.
func (r *RecordingNotifier) Count(t ports.EventType) int {
	n := 0
	for _, ev := range r.Events() {
		if ev.Type == t {
			n++
		}
	}
	return n
}

// WriteLines escribe una entrada por línea creando los directorios padres.
func WriteLines(path string, entries ...string) error {
	return lines.Write(path, entries)
}

// ReadFile retorna el contenido de path o "" si no existe.
func ReadFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}
