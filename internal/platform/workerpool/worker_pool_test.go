// internal/platform/workerpool/worker_pool_test.go
package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_SubmitCollectsEveryResult(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{Workers: 3})
	defer pool.Stop()

	var ran int32
	tasks := make([]Task, 0, 5)
	for i := 0; i < 5; i++ {
		tasks = append(tasks, &FuncTask{
			TaskName: "t",
			Fn: func(ctx context.Context) error {
				atomic.AddInt32(&ran, 1)
				return nil
			},
		})
	}

	results := pool.Submit(context.Background(), tasks)
	assert.Len(t, results, 5)
	assert.EqualValues(t, 5, atomic.LoadInt32(&ran))
}

func TestWorkerPool_PanicDoesNotAffectSiblings(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{Workers: 4})
	defer pool.Stop()

	boom := &FuncTask{TaskName: "boom", Fn: func(ctx context.Context) error { panic("kaboom") }}
	failing := &FuncTask{TaskName: "fail", Fn: func(ctx context.Context) error { return errors.New("nope") }}
	ok1 := &FuncTask{TaskName: "ok1", Fn: func(ctx context.Context) error { return nil }}
	ok2 := &FuncTask{TaskName: "ok2", Fn: func(ctx context.Context) error { return nil }}

	results := pool.Submit(context.Background(), []Task{boom, failing, ok1, ok2})
	require.Len(t, results, 4)

	byName := make(map[string]error)
	for _, r := range results {
		byName[r.Task.Name()] = r.Error
	}

	var pe *PanicError
	require.True(t, errors.As(byName["boom"], &pe))
	assert.Equal(t, "kaboom", pe.Value)
	assert.EqualError(t, byName["fail"], "nope")
	assert.NoError(t, byName["ok1"])
	assert.NoError(t, byName["ok2"])
}

func TestWorkerPool_TasksRunConcurrently(t *testing.T) {
	const width = 4
	pool := NewWorkerPool(WorkerPoolConfig{Workers: width})
	defer pool.Stop()

	// Cada tarea espera a que todas hayan arrancado: solo termina si el
	// despacho es realmente concurrente.
	var started sync.WaitGroup
	started.Add(width)
	tasks := make([]Task, 0, width)
	for i := 0; i < width; i++ {
		tasks = append(tasks, &FuncTask{TaskName: "barrier", Fn: func(ctx context.Context) error {
			started.Done()
			started.Wait()
			return nil
		}})
	}

	done := make(chan []TaskResult)
	go func() { done <- pool.Submit(context.Background(), tasks) }()

	select {
	case results := <-done:
		assert.Len(t, results, width)
	case <-time.After(5 * time.Second):
		t.Fatal("tasks were not dispatched concurrently")
	}
}

func TestWorkerPool_ContextPropagates(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{Workers: 1})
	defer pool.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := pool.Submit(ctx, []Task{&FuncTask{TaskName: "ctx", Fn: func(ctx context.Context) error {
		return ctx.Err()
	}}})
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Error, context.Canceled)
}

func TestWorkerPool_SubmitAfterStop(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{Workers: 2})
	pool.Start()
	pool.Stop()
	pool.Stop()

	results := pool.Submit(context.Background(), []Task{&FuncTask{TaskName: "late", Fn: func(ctx context.Context) error { return nil }}})
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Error, ErrPoolStopped)
}

func TestPriorityScheduler_StableOrder(t *testing.T) {
	a := &FuncTask{TaskName: "a", TaskPriority: 1}
	b := &FuncTask{TaskName: "b", TaskPriority: 5}
	c := &FuncTask{TaskName: "c", TaskPriority: 1}

	got := NewPriorityScheduler().Schedule([]Task{a, b, c})
	names := []string{got[0].Name(), got[1].Name(), got[2].Name()}
	assert.Equal(t, []string{"b", "a", "c"}, names)

	assert.Equal(t, "priority", NewPriorityScheduler().Name())
}

// FuncTask adapta una función a Task.
type FuncTask struct {
	TaskName     string
	TaskPriority int
	Fn           func(ctx context.Context) error
}

func (t *FuncTask) Execute(ctx context.Context) error { return t.Fn(ctx) }
func (t *FuncTask) Priority() int { return t.TaskPriority }
func (t *FuncTask) Name() string { return t.TaskName }
