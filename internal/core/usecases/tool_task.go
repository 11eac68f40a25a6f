// internal/core/usecases/tool_task.go
package usecases

import (
	"context"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
)

// ToolTask adapta un ports.Tool a workerpool.Task.
type ToolTask struct {
	tool     ports.Tool
	input    ports.ToolInput
	priority int

	// onDone se invoca desde el worker apenas la herramienta retorna
	onDone func(t *ToolTask)

	// Resultado de la ejecución
	output   ports.ToolOutput
	err      error
	starved  bool
	finished bool
}

// NewToolTask crea una nueva ToolTask.
func NewToolTask(tool ports.Tool, input ports.ToolInput, priority int) *ToolTask {
	return &ToolTask{
		tool:     tool,
		input:    input,
		priority: priority,
	}
}

// Execute ejecuta la herramienta. Si sus inputs faltan no la invoca.
func (tt *ToolTask) Execute(ctx context.Context) error {
	if starved(tt.tool, tt.input) {
		tt.starved = true
	} else {
		tt.output, tt.err = tt.tool.Invoke(ctx, tt.input)
	}
	if tt.onDone != nil {
		tt.onDone(tt)
	}
	return tt.err
}

// Priority retorna la prioridad de la tarea.
func (tt *ToolTask) Priority() int {
	return tt.priority
}

// Name retorna el nombre de la tarea (nombre de la herramienta).
func (tt *ToolTask) Name() string {
	return tt.tool.Name()
}

// Result retorna el resultado de la ejecución.
func (tt *ToolTask) Result() (ports.ToolOutput, error) {
	return tt.output, tt.err
}

// Starved indica si la herramienta se omitió por falta de input.
func (tt *ToolTask) Starved() bool {
	return tt.starved
}

// Tool retorna la herramienta subyacente.
func (tt *ToolTask) Tool() ports.Tool {
	return tt.tool
}

// starved indica si tool declara inputs y todos faltan o están vacíos.
func starved(tool ports.Tool, in ports.ToolInput) bool {
	consumer, ok := tool.(ports.InputConsumer)
	if !ok {
		return false
	}
	required := consumer.RequiredInputs()
	if len(required) == 0 {
		return false
	}
	for _, name := range required {
		if !domain.NewArtifact(in.ScanID, "", "", in.Path(name), domain.SchemaLines).IsEmpty() {
			return false
		}
	}
	return true
}
