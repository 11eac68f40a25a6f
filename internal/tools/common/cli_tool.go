// internal/tools/common/cli_tool.go
// Package common provides the shared subprocess plumbing for tool adapters.
package common

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/errors"
	"domscout/internal/platform/lines"
	"domscout/internal/platform/logx"
)

// stderrTail is how much stderr is kept for logging.
const stderrTail = 4096

// OutputHandler processes stdout of a CLI tool line by line.
type OutputHandler interface {
	// ProcessLine handles each line of stdout as it is produced.
	// Errors are logged and processing continues.
	ProcessLine(line []byte) error

	// Finalize is called once after the process exits, even on failure.
	Finalize() error
}

// BaseCLIConfig contains configuration for BaseCLITool.
type BaseCLIConfig struct {
	ToolName string
	Stage    domain.Phase

	// ExecPath configured binary; Candidates are tried when it is empty or missing
	ExecPath   string
	Candidates []string

	Timeout   time.Duration
	ExtraArgs []string
}

// NewBaseCLIConfig builds a BaseCLIConfig from the registry tool config.
func NewBaseCLIConfig(name string, stage domain.Phase, cfg ports.ToolConfig, candidates ...string) BaseCLIConfig {
	return BaseCLIConfig{
		ToolName:   name,
		Stage:      stage,
		ExecPath:   cfg.ExecPath,
		Candidates: candidates,
		Timeout:    cfg.Timeout,
		ExtraArgs:  cfg.Args,
	}
}

// Command describes one invocation of the binary.
type Command struct {
	Args []string

	// Dir working directory of the process
	Dir string

	// StdinFile, if set, is fed to the process on stdin
	StdinFile string

	// Handler receives stdout; nil discards it
	Handler OutputHandler
}

// BaseCLITool handles binary resolution, subprocess execution, stdout
// streaming, timeouts and error classification for CLI-based tools.
// Embed it in the adapter and call Execute from Invoke.
type BaseCLITool struct {
	name       string
	stage      domain.Phase
	logger     logx.Logger
	execPath   string
	candidates []string
	timeout    time.Duration
	extraArgs  []string

	lookPath func(file string) (string, error)
}

// NewBaseCLITool creates a new BaseCLITool.
func NewBaseCLITool(logger logx.Logger, cfg BaseCLIConfig) *BaseCLITool {
	if logger == nil {
		logger = logx.NewNop()
	}
	return &BaseCLITool{
		name:       cfg.ToolName,
		stage:      cfg.Stage,
		logger:     logger,
		execPath:   cfg.ExecPath,
		candidates: cfg.Candidates,
		timeout:    cfg.Timeout,
		extraArgs:  cfg.ExtraArgs,
		lookPath:   exec.LookPath,
	}
}

// Name implements ports.Tool.
func (b *BaseCLITool) Name() string { return b.name }

// Stage implements ports.Tool.
func (b *BaseCLITool) Stage() domain.Phase { return b.stage }

// Logger returns the tool logger.
func (b *BaseCLITool) Logger() logx.Logger { return b.logger }

// Timeout returns the per-invocation timeout (0 = none).
func (b *BaseCLITool) Timeout() time.Duration { return b.timeout }

// SetLookPath replaces binary resolution (tests).
func (b *BaseCLITool) SetLookPath(fn func(file string) (string, error)) {
	b.lookPath = fn
}

// Resolve returns the first resolvable binary among the configured path and
// the candidates.
func (b *BaseCLITool) Resolve() (string, error) {
	tried := make([]string, 0, len(b.candidates)+1)
	if b.execPath != "" {
		tried = append(tried, b.execPath)
	}
	tried = append(tried, b.candidates...)

	for _, name := range tried {
		if path, err := b.lookPath(name); err == nil {
			return path, nil
		}
	}
	return "", domain.NewToolError(b.name, domain.ToolErrorNotFound,
		fmt.Errorf("none of %s found in PATH", strings.Join(tried, ", ")))
}

// Available reports whether the binary can be resolved.
func (b *BaseCLITool) Available() bool {
	_, err := b.Resolve()
	return err == nil
}

// Execute runs the binary with cmd.Args plus the configured extra args.
//
// Returned errors are always *domain.ToolError:
//   - not_found: no binary resolved
//   - launch: stdin or pipes could not be set up, or the process did not start
//   - timeout: the per-tool timeout expired
//   - exit: non-zero exit status, or cancellation (wrapping context.Canceled)
func (b *BaseCLITool) Execute(ctx context.Context, c Command) (err error) {
	if c.Handler != nil {
		defer func() {
			if ferr := c.Handler.Finalize(); ferr != nil {
				b.logger.Warn("handler finalization error", "error", ferr.Error())
			}
		}()
	}

	bin, err := b.Resolve()
	if err != nil {
		return err
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	args := append(append([]string{}, c.Args...), b.extraArgs...)
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = 5 * time.Second

	if c.StdinFile != "" {
		stdin, err := os.Open(c.StdinFile)
		if err != nil {
			return domain.NewToolError(b.name, domain.ToolErrorLaunch, errors.Wrap(err, "open stdin"))
		}
		defer stdin.Close()
		cmd.Stdin = stdin
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return domain.NewToolError(b.name, domain.ToolErrorLaunch, errors.Wrap(err, "stdout pipe"))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return domain.NewToolError(b.name, domain.ToolErrorLaunch, errors.Wrap(err, "stderr pipe"))
	}

	b.logger.Info("executing CLI command", "exec_path", bin, "args", args, "timeout", b.timeout.String())
	start := time.Now()

	if err := cmd.Start(); err != nil {
		return domain.NewToolError(b.name, domain.ToolErrorLaunch, err)
	}
	b.logger.Debug("subprocess started", "pid", cmd.Process.Pid)

	// stderr en segundo plano para que el proceso nunca bloquee
	var (
		stderrBuf tailBuffer
		stderrWg  sync.WaitGroup
	)
	stderrWg.Add(1)
	go func() {
		defer stderrWg.Done()
		if _, err := io.Copy(&stderrBuf, stderr); err != nil {
			b.logger.Debug("error reading stderr", "error", err.Error())
		}
	}()

	b.processOutput(stdout, c.Handler)
	stderrWg.Wait()
	waitErr := cmd.Wait()

	if msg := stderrBuf.String(); msg != "" {
		b.logger.Debug("subprocess stderr", "output", msg)
	}

	duration := time.Since(start)
	if waitErr != nil {
		b.logger.Warn("subprocess exited with error", "error", waitErr.Error(), "duration", duration.String())
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.NewToolError(b.name, domain.ToolErrorTimeout, fmt.Errorf("%w after %s", errors.ErrTimeout, b.timeout))
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.NewToolError(b.name, domain.ToolErrorExit, fmt.Errorf("%w: %v", ctxErr, waitErr))
		}
		return domain.NewToolError(b.name, domain.ToolErrorExit, waitErr)
	}

	b.logger.Info("CLI command completed", "duration", duration.String())
	return nil
}

// processOutput streams stdout to handler, or drains it.
func (b *BaseCLITool) processOutput(stdout io.Reader, handler OutputHandler) {
	if handler == nil {
		if _, err := io.Copy(io.Discard, stdout); err != nil {
			b.logger.Debug("error draining stdout", "error", err.Error())
		}
		return
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		if err := handler.ProcessLine(scanner.Bytes()); err != nil {
			b.logger.Warn("handler error", "error", err.Error())
		}
	}
	if err := scanner.Err(); err != nil {
		b.logger.Warn("scanner error", "error", err.Error())
		// el proceso no debe quedar bloqueado escribiendo
		_, _ = io.Copy(io.Discard, stdout)
	}
}

// Finish applies the artifact rule to the outcome of Execute: a missing
// binary or a failed launch is always an error; a non-zero exit or a timeout
// is only an error when the tool left nothing usable behind.
func (b *BaseCLITool) Finish(out ports.ToolOutput, runErr error) (ports.ToolOutput, error) {
	if runErr == nil {
		return out, nil
	}
	if domain.IsToolError(runErr, domain.ToolErrorNotFound) || domain.IsToolError(runErr, domain.ToolErrorLaunch) {
		return out, runErr
	}
	if out.Count == 0 {
		return out, runErr
	}
	b.logger.Warn("tool exited abnormally but produced output, keeping it",
		"count", out.Count, "error", runErr.Error())
	return out, nil
}

// FinishArtifact is Finish for tools that write their own artifact. A
// non-zero exit that left the primary artifact in place but empty means the
// tool found nothing (assetfinder and findomain exit 1 on no results), so the
// run completes with zero results. Cancellation, timeouts and a missing
// artifact keep failing.
func (b *BaseCLITool) FinishArtifact(out ports.ToolOutput, runErr error) (ports.ToolOutput, error) {
	if out.Count == 0 && foundNothing(out, runErr) {
		b.logger.Info("tool exited non-zero with an empty artifact, no results", "error", runErr.Error())
		return out, nil
	}
	return b.Finish(out, runErr)
}

func foundNothing(out ports.ToolOutput, runErr error) bool {
	if !domain.IsToolError(runErr, domain.ToolErrorExit) ||
		errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		return false
	}
	primary, ok := out.Primary()
	return ok && primary.Exists()
}

// LinesOutput reads a lines artifact and builds the ToolOutput.
func (b *BaseCLITool) LinesOutput(in ports.ToolInput, path string) (ports.ToolOutput, error) {
	entries, err := lines.Read(path)
	if err != nil {
		return ports.ToolOutput{}, errors.Wrapf(err, "read %s", path)
	}
	if entries == nil {
		entries = []string{}
	}
	return ports.ToolOutput{
		Artifacts: []domain.Artifact{b.Artifact(in, path, domain.SchemaLines)},
		Count:     len(entries),
		Results:   entries,
	}, nil
}

// Artifact returns a handle for a file written by this tool.
func (b *BaseCLITool) Artifact(in ports.ToolInput, path string, schema domain.Schema) domain.Artifact {
	return domain.NewArtifact(in.ScanID, b.stage, b.name, path, schema)
}

// RunLines is the common flow for tools whose artifact is a lines file:
// Execute, read the artifact, apply FinishArtifact.
func (b *BaseCLITool) RunLines(ctx context.Context, in ports.ToolInput, c Command, path string) (ports.ToolOutput, error) {
	runErr := b.Execute(ctx, c)
	if domain.IsToolError(runErr, domain.ToolErrorNotFound) || domain.IsToolError(runErr, domain.ToolErrorLaunch) {
		return ports.ToolOutput{}, runErr
	}
	out, err := b.LinesOutput(in, path)
	if err != nil {
		if runErr != nil {
			return out, runErr
		}
		return out, domain.NewToolError(b.name, domain.ToolErrorExit, err)
	}
	return b.FinishArtifact(out, runErr)
}

// RunStdout streams the process stdout into path through filter, then
// behaves like RunLines. Used for tools that have no output flag.
func (b *BaseCLITool) RunStdout(ctx context.Context, in ports.ToolInput, c Command, path string, filter LineFilter) (ports.ToolOutput, error) {
	if _, err := b.Resolve(); err != nil {
		return ports.ToolOutput{}, err
	}
	handler := NewFileHandler(path, filter)
	if err := handler.Open(); err != nil {
		return ports.ToolOutput{}, domain.NewToolError(b.name, domain.ToolErrorLaunch, err)
	}
	c.Handler = handler
	return b.RunLines(ctx, in, c, path)
}

// tailBuffer keeps the last stderrTail bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Write(p)
	if extra := t.buf.Len() - stderrTail; extra > 0 {
		t.buf.Next(extra)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(t.buf.String())
}
