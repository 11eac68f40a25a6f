// internal/tools/gowitness/gowitness.go
// Package gowitness screenshots the discovered URLs with gowitness and reads
// the results back from its SQLite database.
package gowitness

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/errors"
	"domscout/internal/platform/lines"
	"domscout/internal/platform/logx"
	"domscout/internal/tools/common"
)

const toolName = "gowitness"

// Options son los parámetros de captura.
type Options struct {
	Threads int
	// Delay segundos de espera antes de capturar; 0 = sin espera, negativo = default
	Delay   int
	Timeout int

	// ChromePath vacío = autodetectar
	ChromePath string
}

// DefaultOptions retorna los valores usados por defecto.
func DefaultOptions() Options {
	return Options{Threads: 20, Delay: 2, Timeout: 20}
}

// Gowitness ejecuta `gowitness scan file -f <urls> ... --db-path gowitness.sqlite3`.
type Gowitness struct {
	*common.BaseCLITool

	opts       Options
	findChrome func() string
}

// New crea el adapter. Binarios probados: ruta configurada,
// ~/go/bin/gowitness, gowitness en PATH.
func New(logger logx.Logger, cfg ports.ToolConfig, opts Options) *Gowitness {
	def := DefaultOptions()
	if opts.Threads <= 0 {
		opts.Threads = def.Threads
	}
	if opts.Delay < 0 {
		opts.Delay = def.Delay
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}

	candidates := []string{}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, "go", "bin", toolName))
	}
	candidates = append(candidates, toolName)

	return &Gowitness{
		BaseCLITool: common.NewBaseCLITool(logger,
			common.NewBaseCLIConfig(toolName, domain.PhaseScreenshotting, cfg, candidates...)),
		opts:       opts,
		findChrome: common.FindChrome,
	}
}

// RequiredInputs implements ports.InputConsumer. Cualquiera de los dos
// archivos alcanza; se prefiere urls.txt.
func (g *Gowitness) RequiredInputs() []string {
	return []string{domain.FileURLs, domain.FileAliveServices}
}

// Invoke implements ports.Tool.
func (g *Gowitness) Invoke(ctx context.Context, in ports.ToolInput) (ports.ToolOutput, error) {
	input := g.inputFile(in)
	shotsDir := filepath.Join(in.ScreenshotsDir, in.ScanID)
	if err := os.MkdirAll(shotsDir, 0o755); err != nil {
		return ports.ToolOutput{}, domain.NewToolError(toolName, domain.ToolErrorLaunch, errors.Wrap(err, "create screenshots dir"))
	}

	dbPath := in.Path(domain.FileGowitnessDB)
	runErr := g.Execute(ctx, common.Command{Args: g.buildArgs(input, shotsDir, dbPath), Dir: in.WorkDir})
	if domain.IsToolError(runErr, domain.ToolErrorNotFound) || domain.IsToolError(runErr, domain.ToolErrorLaunch) {
		return ports.ToolOutput{}, runErr
	}

	shots, err := ReadDB(ctx, dbPath, in.ScanID)
	if err != nil {
		g.Logger().Warn("failed to read gowitness db", "error", err.Error())
		if runErr == nil {
			runErr = domain.NewToolError(toolName, domain.ToolErrorExit, err)
		}
	}

	urls := make([]string, 0, len(shots))
	for _, s := range shots {
		urls = append(urls, s.URL)
	}
	out := ports.ToolOutput{
		Artifacts: []domain.Artifact{g.Artifact(in, dbPath, domain.SchemaSQLite)},
		Count:     len(shots),
		Results:   urls,
	}
	return g.Finish(out, runErr)
}

// Endpoints implements ports.EndpointSource.
func (g *Gowitness) Endpoints(ctx context.Context, in ports.ToolInput) ([]*domain.EndpointRecord, error) {
	shots, err := ReadDB(ctx, in.Path(domain.FileGowitnessDB), in.ScanID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.EndpointRecord, 0, len(shots))
	for _, s := range shots {
		out = append(out, s.Endpoint())
	}
	return out, nil
}

// inputFile retorna el primer archivo de entrada con contenido.
func (g *Gowitness) inputFile(in ports.ToolInput) string {
	for _, name := range g.RequiredInputs() {
		if n, err := lines.Count(in.Path(name)); err == nil && n > 0 {
			return in.Path(name)
		}
	}
	return in.Path(domain.FileURLs)
}

func (g *Gowitness) buildArgs(input, shotsDir, dbPath string) []string {
	args := []string{
		"scan", "file",
		"-f", input,
		"--threads", strconv.Itoa(g.opts.Threads),
		"--delay", strconv.Itoa(g.opts.Delay),
		"--timeout", strconv.Itoa(g.opts.Timeout),
		"--screenshot-path", shotsDir + string(filepath.Separator),
		"--db-path", dbPath,
	}
	chrome := g.opts.ChromePath
	if chrome == "" && g.findChrome != nil {
		chrome = g.findChrome()
	}
	if chrome != "" {
		args = append(args, "--chrome-path", chrome)
	}
	return args
}
