// internal/core/usecases/scheduler.go
package usecases

import (
	"context"
	"time"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/errors"
	"domscout/internal/platform/logx"
	"domscout/internal/platform/workerpool"
)

// SchedulerHooks recibe notificaciones de cada herramienta del stage.
// OnFinish se invoca desde los workers, puede ser concurrente.
type SchedulerHooks struct {
	OnStart  func(stage Stage, tool string)
	OnFinish func(stage Stage, run domain.ToolRun, skipped bool)
}

// StageScheduler ejecuta las herramientas de un stage en paralelo sobre un
// worker pool acotado y espera a que todas terminen (barrera del stage).
type StageScheduler struct {
	maxWorkers int
	logger     logx.Logger
	now        func() time.Time
}

// NewStageScheduler crea un scheduler con a lo sumo maxWorkers workers por stage.
func NewStageScheduler(maxWorkers int, logger logx.Logger) *StageScheduler {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if logger == nil {
		logger = logx.NewNop()
	}
	return &StageScheduler{
		maxWorkers: maxWorkers,
		logger:     logger.With("component", "stage_scheduler"),
		now:        time.Now,
	}
}

// RunStage marca todas las herramientas como running, las despacha y
// bloquea hasta que cada una está en completed o failed. El fallo (o panic)
// de una herramienta nunca cancela a las demás.
func (s *StageScheduler) RunStage(ctx context.Context, stage Stage, tools []ports.Tool, in ports.ToolInput, table *StatusTable, hooks SchedulerHooks) StageResult {
	start := s.now()
	result := StageResult{StageID: stage.ID, Phase: stage.Phase}
	if len(tools) == 0 {
		return result
	}

	for _, tool := range tools {
		table.Start(tool.Name(), stage.Phase, start)
	}
	if hooks.OnStart != nil {
		for _, tool := range tools {
			hooks.OnStart(stage, tool.Name())
		}
	}

	width := len(tools)
	if width > s.maxWorkers {
		width = s.maxWorkers
	}
	pool := workerpool.NewWorkerPool(workerpool.WorkerPoolConfig{
		Workers: width,
		Logger:  s.logger,
	})
	defer pool.Stop()

	tasks := make([]workerpool.Task, 0, len(tools))
	for i, tool := range tools {
		task := NewToolTask(tool, in, len(tools)-i)
		task.onDone = func(t *ToolTask) {
			s.finish(stage, t, table, hooks)
		}
		tasks = append(tasks, task)
	}

	s.logger.Debug("dispatching stage", "stage", stage.Phase.String(), "tools", len(tools), "workers", width)

	for _, res := range pool.Submit(ctx, tasks) {
		task, ok := res.Task.(*ToolTask)
		if !ok || task.finished {
			continue
		}
		// la tarea nunca llegó a registrar su resultado: panic o pool detenido
		name := task.Name()
		kind := domain.ToolErrorLaunch
		var panicErr *workerpool.PanicError
		if errors.As(res.Error, &panicErr) {
			kind = domain.ToolErrorPanic
		}
		run := table.Fail(name, domain.NewToolError(name, kind, res.Error), nil, s.now())
		task.finished = true
		s.logger.Warn("tool run aborted", "tool", name, "kind", string(kind), "error", res.Error)
		if hooks.OnFinish != nil {
			hooks.OnFinish(stage, run, false)
		}
	}

	for _, tool := range tools {
		if run, ok := table.Run(tool.Name()); ok {
			result.Runs = append(result.Runs, run)
		}
	}
	result.Duration = s.now().Sub(start)
	return result
}

// finish registra el resultado de una tarea en la tabla de estados.
func (s *StageScheduler) finish(stage Stage, t *ToolTask, table *StatusTable, hooks SchedulerHooks) {
	name := t.Name()
	now := s.now()

	var run domain.ToolRun
	switch {
	case t.starved:
		run = table.Complete(name, ports.ToolOutput{Results: []string{}}, now)
		s.logger.Info("tool skipped", "tool", name, "reason", domain.ErrStageStarved.Error())
	case t.err != nil:
		err := t.err
		if !domain.IsToolError(err, "") {
			err = domain.NewToolError(name, domain.ToolErrorExit, err)
		}
		run = table.Fail(name, err, t.output.Artifacts, now)
		s.logger.Warn("tool failed", "tool", name, "error", err.Error())
	default:
		run = table.Complete(name, t.output, now)
		s.logger.Debug("tool completed", "tool", name, "count", run.Count, "duration_ms", run.Duration.Milliseconds())
	}
	t.finished = true

	if hooks.OnFinish != nil {
		hooks.OnFinish(stage, run, t.starved)
	}
}
