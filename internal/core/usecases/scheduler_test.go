// internal/core/usecases/scheduler_test.go
package usecases

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/logx"
	"domscout/internal/testutil"
	"domscout/internal/tools/assetfinder"
	"domscout/internal/tools/findomain"
)

func stageOf(tools ...ports.Tool) Stage {
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name())
	}
	return Stage{ID: 1, Phase: domain.PhaseEnumerating, Tools: names}
}

func TestStageScheduler_PanicDoesNotAffectSiblings(t *testing.T) {
	in := ports.ToolInput{ScanID: "scan-1", Target: "example.com", WorkDir: t.TempDir()}

	boom := testutil.NewFakeTool("boom", domain.PhaseEnumerating)
	boom.Panic = "tool crashed"
	tools := []ports.Tool{
		testutil.NewFakeTool("one", domain.PhaseEnumerating, "a.example.com"),
		boom,
		testutil.NewFakeTool("two", domain.PhaseEnumerating, "b.example.com", "c.example.com"),
		testutil.NewFakeTool("three", domain.PhaseEnumerating),
	}
	stage := stageOf(tools...)
	table := NewStatusTable([]Stage{stage})

	var finished atomic.Int32
	hooks := SchedulerHooks{OnFinish: func(Stage, domain.ToolRun, bool) { finished.Add(1) }}

	result := NewStageScheduler(4, logx.NewNop()).RunStage(context.Background(), stage, tools, in, table, hooks)

	require.Len(t, result.Runs, 4)
	assert.Equal(t, 3, result.Succeeded())
	assert.Equal(t, 1, result.Failed())
	assert.Equal(t, 3, result.Count())
	assert.EqualValues(t, 4, finished.Load())

	run, ok := table.Run("boom")
	require.True(t, ok)
	assert.Equal(t, domain.ToolStatusFailed, run.Status)
	assert.True(t, domain.IsToolError(run.Err, domain.ToolErrorPanic))

	for _, name := range []string{"one", "two", "three"} {
		run, ok := table.Run(name)
		require.True(t, ok)
		assert.Equal(t, domain.ToolStatusCompleted, run.Status, name)
	}
	res, _ := table.Results("two")
	assert.Equal(t, []string{"b.example.com", "c.example.com"}, res)
}

func TestStageScheduler_AllRunningBeforeAnyCompletes(t *testing.T) {
	in := ports.ToolInput{ScanID: "scan-1", WorkDir: t.TempDir()}

	names := []string{"w1", "w2", "w3", "w4"}
	stage := Stage{ID: 1, Phase: domain.PhaseEnumerating, Tools: names}
	table := NewStatusTable([]Stage{stage})

	var (
		arrived sync.WaitGroup
		release = make(chan struct{})
		idle    atomic.Int32
	)
	arrived.Add(len(names))
	go func() {
		arrived.Wait()
		close(release)
	}()

	tools := make([]ports.Tool, 0, len(names))
	for _, name := range names {
		tool := testutil.NewFakeTool(name, domain.PhaseEnumerating)
		tool.InvokeFn = func(ctx context.Context, in ports.ToolInput) (ports.ToolOutput, error) {
			for _, other := range names {
				if run, _ := table.Run(other); run.Status == domain.ToolStatusIdle {
					idle.Add(1)
				}
			}
			arrived.Done()
			select {
			case <-release:
				return ports.ToolOutput{Count: 1, Results: []string{name}}, nil
			case <-time.After(5 * time.Second):
				return ports.ToolOutput{}, errors.New("siblings never started")
			}
		}
		tools = append(tools, tool)
	}

	result := NewStageScheduler(4, nil).RunStage(context.Background(), stage, tools, in, table, SchedulerHooks{})

	assert.Zero(t, idle.Load())
	assert.Equal(t, 4, result.Succeeded())
}

func TestStageScheduler_StarvedToolCompletesWithZero(t *testing.T) {
	in := ports.ToolInput{ScanID: "scan-1", WorkDir: t.TempDir()}

	dnsx := testutil.NewFakeTool("dnsx", domain.PhaseResolving, "never.example.com")
	dnsx.Inputs = []string{domain.FileSubdomains}
	stage := Stage{ID: 3, Phase: domain.PhaseResolving, Tools: []string{"dnsx"}}
	table := NewStatusTable([]Stage{stage})

	var skipped bool
	hooks := SchedulerHooks{OnFinish: func(_ Stage, _ domain.ToolRun, s bool) { skipped = s }}

	result := NewStageScheduler(2, nil).RunStage(context.Background(), stage, []ports.Tool{dnsx}, in, table, hooks)

	require.Len(t, result.Runs, 1)
	assert.Equal(t, domain.ToolStatusCompleted, result.Runs[0].Status)
	assert.Zero(t, result.Runs[0].Count)
	assert.Zero(t, dnsx.Calls())
	assert.True(t, skipped)

	res, ok := table.Results("dnsx")
	assert.True(t, ok)
	assert.Empty(t, res)
}

func TestStageScheduler_EmptyInputFileIsStarved(t *testing.T) {
	in := ports.ToolInput{ScanID: "scan-1", WorkDir: t.TempDir()}
	require.NoError(t, testutil.WriteLines(in.Path(domain.FileSubdomains)))

	dnsx := testutil.NewFakeTool("dnsx", domain.PhaseResolving)
	dnsx.Inputs = []string{domain.FileSubdomains}
	stage := Stage{ID: 3, Phase: domain.PhaseResolving, Tools: []string{"dnsx"}}

	result := NewStageScheduler(1, nil).RunStage(context.Background(), stage, []ports.Tool{dnsx}, in, NewStatusTable([]Stage{stage}), SchedulerHooks{})
	assert.Equal(t, 1, result.Succeeded())
	assert.Zero(t, dnsx.Calls())
}

func TestStageScheduler_ErrorsAreToolErrors(t *testing.T) {
	in := ports.ToolInput{ScanID: "scan-1", WorkDir: t.TempDir()}

	plain := testutil.NewFakeTool("plain", domain.PhaseEnumerating, "x.example.com")
	plain.Err = errors.New("exit status 2")
	typed := testutil.NewFakeTool("typed", domain.PhaseEnumerating)
	typed.InvokeFn = func(ctx context.Context, in ports.ToolInput) (ports.ToolOutput, error) {
		return ports.ToolOutput{}, domain.NewToolError("typed", domain.ToolErrorNotFound, errors.New("not in PATH"))
	}

	tools := []ports.Tool{plain, typed}
	stage := stageOf(tools...)
	table := NewStatusTable([]Stage{stage})
	result := NewStageScheduler(1, nil).RunStage(context.Background(), stage, tools, in, table, SchedulerHooks{})
	assert.Equal(t, 2, result.Failed())

	run, _ := table.Run("plain")
	assert.True(t, domain.IsToolError(run.Err, domain.ToolErrorExit))
	// el artifact parcial queda registrado para la limpieza
	assert.Len(t, run.Artifacts, 1)

	run, _ = table.Run("typed")
	assert.True(t, domain.IsToolError(run.Err, domain.ToolErrorNotFound))

	_, ok := table.Results("plain")
	assert.False(t, ok)
}

func TestStageScheduler_NoTools(t *testing.T) {
	stage := Stage{ID: 5, Phase: domain.PhaseExtractingURLs}
	result := NewStageScheduler(4, nil).RunStage(context.Background(), stage, nil, ports.ToolInput{}, NewStatusTable(nil), SchedulerHooks{})
	assert.Empty(t, result.Runs)
	assert.Equal(t, 5, result.StageID)
}

func TestStatusTable_Restore(t *testing.T) {
	table := NewStatusTable(DefaultStages())

	table.Restore(domain.ToolRecord{ScanID: "s", Tool: "subfinder", Status: domain.ToolStatusCompleted, Count: 2, Results: []string{"a", "b"}})
	table.Restore(domain.ToolRecord{ScanID: "s", Tool: "dnsx", Status: domain.ToolStatusRunning, Count: 7})

	snap := table.Snapshot()
	assert.Equal(t, domain.ToolState{Status: domain.ToolStatusCompleted, Count: 2}, snap["subfinder"])
	assert.Equal(t, domain.ToolState{Status: domain.ToolStatusFailed, Count: 0}, snap["dnsx"])
	assert.Equal(t, domain.ToolState{Status: domain.ToolStatusIdle, Count: 0}, snap["httpx"])

	res, ok := table.Results("subfinder")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, res)

	rec := table.Record("s", "subfinder", time.Unix(0, 0))
	assert.Equal(t, domain.ToolStatusCompleted, rec.Status)
	assert.Equal(t, []string{"a", "b"}, rec.Results)

	unknown := table.Record("s", "nope", time.Unix(0, 0))
	assert.Equal(t, domain.ToolStatusIdle, unknown.Status)
}

func TestStatusTable_RunsInPipelineOrder(t *testing.T) {
	table := NewStatusTable(DefaultStages())
	runs := table.Runs()
	require.NotEmpty(t, runs)
	assert.Equal(t, "subfinder", runs[0].Tool)
	assert.Equal(t, "gowitness", runs[len(runs)-1].Tool)
}

func TestStageScheduler_EnumeratorExitingWithoutResultsCompletes(t *testing.T) {
	in := ports.ToolInput{ScanID: "scan-1", Target: "example.com", WorkDir: t.TempDir()}

	afCfg := ports.DefaultToolConfig()
	afCfg.ExecPath = testutil.FakeBinary(t, "assetfinder", "exit 1")
	fdCfg := ports.DefaultToolConfig()
	fdCfg.ExecPath = testutil.FakeBinary(t, "findomain", `echo "no subdomains" >&2; exit 1`)

	tools := []ports.Tool{
		assetfinder.New(logx.NewNop(), afCfg),
		findomain.New(logx.NewNop(), fdCfg),
	}
	stage := stageOf(tools...)
	table := NewStatusTable([]Stage{stage})

	result := NewStageScheduler(2, logx.NewNop()).RunStage(context.Background(), stage, tools, in, table, SchedulerHooks{})

	assert.Equal(t, 2, result.Succeeded())
	assert.Zero(t, result.Failed())
	for _, tool := range tools {
		run, ok := table.Run(tool.Name())
		require.True(t, ok)
		assert.Equal(t, domain.ToolStatusCompleted, run.Status, tool.Name())
		assert.Zero(t, run.Count, tool.Name())
		assert.NoError(t, run.Err, tool.Name())
	}
}
