// internal/platform/workerpool/worker_pool.go
package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"domscout/internal/platform/logx"
)

// Task representa una tarea a ejecutar en el worker pool.
type Task interface {
	// Execute ejecuta la tarea
	Execute(ctx context.Context) error

	// Priority retorna la prioridad de la tarea (mayor = más prioritario)
	Priority() int

	// Name retorna el nombre de la tarea
	Name() string
}

// Scheduler define la estrategia de orden de despacho.
type Scheduler interface {
	// Schedule ordena las tareas según la estrategia
	Schedule(tasks []Task) []Task

	// Name retorna el nombre del scheduler
	Name() string
}

// PanicError envuelve un panic recuperado dentro de una tarea.
type PanicError struct {
	Task  string
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %s panicked: %v", e.Task, e.Value)
}

// TaskResult representa el resultado de una tarea.
type TaskResult struct {
	Task     Task
	Error    error
	Duration time.Duration
}

// job es una tarea en cola junto con el lote al que pertenece.
type job struct {
	ctx     context.Context
	task    Task
	results chan<- TaskResult
}

// WorkerPool gestiona workers de larga vida que ejecutan lotes de tareas.
// Cada llamada a Submit recibe sus propios resultados, por lo que varios
// lotes pueden compartir el pool sin mezclarse.
type WorkerPool struct {
	workers   int
	scheduler Scheduler
	logger    logx.Logger

	queue chan job

	wg       sync.WaitGroup
	mu       sync.RWMutex
	started  bool
	stopped  bool
	stopOnce sync.Once
}

// WorkerPoolConfig configura el worker pool.
type WorkerPoolConfig struct {
	Workers   int
	Scheduler Scheduler
	Logger    logx.Logger
}

// NewWorkerPool crea un nuevo worker pool.
func NewWorkerPool(cfg WorkerPoolConfig) *WorkerPool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = NewPriorityScheduler()
	}
	if cfg.Logger == nil {
		cfg.Logger = logx.NewNop()
	}

	return &WorkerPool{
		workers:   cfg.Workers,
		scheduler: cfg.Scheduler,
		logger:    cfg.Logger.With("component", "worker-pool"),
		queue:     make(chan job, cfg.Workers*2),
	}
}

// Start inicia los workers. Llamadas repetidas no tienen efecto.
func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.started || wp.stopped {
		return
	}
	wp.started = true

	wp.logger.Debug("starting worker pool", "workers", wp.workers, "scheduler", wp.scheduler.Name())
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for j := range wp.queue {
		j.results <- wp.executeTask(id, j)
	}
}

// executeTask ejecuta una tarea individual. Un panic se convierte en error
// para que nunca afecte a las tareas hermanas ni al worker.
func (wp *WorkerPool) executeTask(workerID int, j job) (result TaskResult) {
	start := time.Now()
	result.Task = j.task

	defer func() {
		if r := recover(); r != nil {
			result.Error = &PanicError{Task: j.task.Name(), Value: r, Stack: debug.Stack()}
			wp.logger.Warn("task panicked", "worker_id", workerID, "task", j.task.Name(), "panic", r)
		}
		result.Duration = time.Since(start)
	}()

	wp.logger.Debug("executing task",
		"worker_id", workerID,
		"task", j.task.Name(),
		"priority", j.task.Priority(),
	)

	result.Error = j.task.Execute(j.ctx)
	return result
}

// Submit envía un lote de tareas y bloquea hasta que todas terminen.
// Retorna un resultado por tarea, en orden de finalización.
// La cancelación de ctx se propaga a las tareas; Submit siempre espera
// a que cada tarea despachada retorne.
func (wp *WorkerPool) Submit(ctx context.Context, tasks []Task) []TaskResult {
	if len(tasks) == 0 {
		return []TaskResult{}
	}

	wp.Start()

	// Stop espera a que los lotes en curso liberen el read lock.
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.stopped {
		results := make([]TaskResult, 0, len(tasks))
		for _, task := range tasks {
			results = append(results, TaskResult{Task: task, Error: ErrPoolStopped})
		}
		return results
	}

	scheduled := wp.scheduler.Schedule(tasks)
	wp.logger.Debug("submitting tasks", "total", len(scheduled), "scheduler", wp.scheduler.Name())

	// Buffer del tamaño del lote: los workers nunca bloquean al reportar.
	results := make(chan TaskResult, len(scheduled))
	go func() {
		for _, task := range scheduled {
			wp.queue <- job{ctx: ctx, task: task, results: results}
		}
	}()

	collected := make([]TaskResult, 0, len(scheduled))
	for i := 0; i < len(scheduled); i++ {
		collected = append(collected, <-results)
	}
	return collected
}

// Stop cierra la cola y espera a que los workers terminen.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		wp.mu.Lock()
		wp.stopped = true
		started := wp.started
		close(wp.queue)
		wp.mu.Unlock()

		if started {
			wp.wg.Wait()
		}
		wp.logger.Debug("worker pool stopped")
	})
}

// Stats retorna estadísticas del worker pool.
func (wp *WorkerPool) Stats() WorkerPoolStats {
	return WorkerPoolStats{
		Workers:       wp.workers,
		SchedulerName: wp.scheduler.Name(),
		QueueSize:     len(wp.queue),
	}
}

// WorkerPoolStats contiene estadísticas del worker pool.
type WorkerPoolStats struct {
	Workers       int
	SchedulerName string
	QueueSize     int
}
