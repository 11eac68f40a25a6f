package installer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"domscout/internal/platform/logx"
)

// ProgressFunc recibe avances de la instalación de tool.
type ProgressFunc func(tool, message string)

// Options configura un Installer.
type Options struct {
	System   SystemInfo
	Runner   Runner
	LookPath func(file string) (string, error)
	GitHub   *GitHubProvider
	Logger   logx.Logger
	Progress ProgressFunc
}

// Installer verifica e instala dependencias una a la vez.
type Installer struct {
	sys      SystemInfo
	run      Runner
	lookPath func(file string) (string, error)
	github   *GitHubProvider
	logger   logx.Logger
	progress ProgressFunc
}

// New crea un Installer con los valores por defecto de cada opción vacía.
func New(opts Options) *Installer {
	if opts.Logger == nil {
		opts.Logger = logx.NewNop()
	}
	if opts.Runner == nil {
		opts.Runner = execRunner
	}
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}
	if opts.GitHub == nil {
		opts.GitHub = NewGitHubProvider(opts.Logger)
	}
	if opts.Progress == nil {
		opts.Progress = func(string, string) {}
	}
	return &Installer{
		sys:      opts.System,
		run:      opts.Runner,
		lookPath: opts.LookPath,
		github:   opts.GitHub,
		logger:   opts.Logger.With("component", "installer"),
		progress: opts.Progress,
	}
}

// System retorna la información del sistema usada.
func (i *Installer) System() SystemInfo { return i.sys }

// Check reporta qué dependencias ya tienen un binario resoluble.
func (i *Installer) Check(deps []Dependency) []Result {
	results := make([]Result, 0, len(deps))
	for _, dep := range deps {
		res := Result{Dependency: dep, Status: StatusMissing, Message: "not installed"}
		if path, ok := i.find(dep); ok {
			res.Status = StatusAlreadyInstalled
			res.Path = path
			res.Message = "found at " + path
		}
		results = append(results, res)
	}
	return results
}

// Install instala las dependencias faltantes (todas si force).
// Un fallo no detiene las siguientes.
func (i *Installer) Install(ctx context.Context, deps []Dependency, force bool) []Result {
	results := make([]Result, 0, len(deps))
	for _, dep := range deps {
		if ctx.Err() != nil {
			results = append(results, Result{Dependency: dep, Status: StatusSkipped, Message: "cancelled", Error: ctx.Err()})
			continue
		}
		results = append(results, i.installOne(ctx, dep, force))
	}
	return results
}

func (i *Installer) installOne(ctx context.Context, dep Dependency, force bool) (res Result) {
	start := time.Now()
	res = Result{Dependency: dep}
	defer func() { res.Duration = time.Since(start) }()

	if path, ok := i.find(dep); ok && !force {
		res.Status = StatusAlreadyInstalled
		res.Path = path
		res.Message = "found at " + path
		return res
	}

	i.progress(dep.Tool, fmt.Sprintf("installing via %s", dep.Method))
	var err error
	switch dep.Method {
	case MethodGo:
		err = i.installGo(ctx, dep)
	case MethodPip:
		err = i.installPip(ctx, dep)
	case MethodGitHub:
		err = i.installGitHub(ctx, dep)
	case MethodSystem:
		res.Status = StatusSkipped
		res.Message = fmt.Sprintf("install %s with your system package manager", dep.Package)
		return res
	default:
		err = fmt.Errorf("unknown install method %q", dep.Method)
	}

	if err != nil {
		i.logger.Warn("install failed", "tool", dep.Tool, "method", string(dep.Method), "error", err.Error())
		res.Status = StatusFailed
		res.Error = err
		res.Message = err.Error()
		return res
	}

	path, ok := i.find(dep)
	if !ok {
		res.Status = StatusFailed
		res.Error = fmt.Errorf("installed but %s was not found in PATH or %s", strings.Join(dep.Binaries, "/"), i.sys.InstallDir)
		res.Message = res.Error.Error()
		return res
	}
	res.Status = StatusSuccess
	res.Path = path
	res.Message = "installed at " + path
	i.logger.Info("dependency installed", "tool", dep.Tool, "path", path)
	return res
}

func (i *Installer) installGo(ctx context.Context, dep Dependency) error {
	if i.sys.GoVersion == "" {
		return fmt.Errorf("go is not installed; install it from https://go.dev/doc/install")
	}
	var env []string
	if i.sys.InstallDir != "" {
		env = append(env, "GOBIN="+i.sys.InstallDir)
	}
	if out, err := i.run(ctx, env, "go", "install", dep.Package+"@latest"); err != nil {
		return fmt.Errorf("go install %s: %w: %s", dep.Package, err, lastLine(out))
	}
	return nil
}

func (i *Installer) installPip(ctx context.Context, dep Dependency) error {
	python := "python3"
	if _, err := i.lookPath(python); err != nil {
		python = "python"
	}
	if out, err := i.run(ctx, nil, python, "-m", "pip", "install", "--user", dep.Package); err != nil {
		return fmt.Errorf("pip install %s: %w: %s", dep.Package, err, lastLine(out))
	}
	return nil
}

func (i *Installer) installGitHub(ctx context.Context, dep Dependency) error {
	key := i.sys.OS + "_" + i.sys.Arch
	pattern, ok := dep.AssetPatterns[key]
	if !ok {
		return fmt.Errorf("no release asset for platform %s", key)
	}

	release, err := i.github.LatestRelease(ctx, dep.Repo)
	if err != nil {
		return err
	}
	name, url, err := FindAsset(release, pattern)
	if err != nil {
		return err
	}
	i.progress(dep.Tool, fmt.Sprintf("downloading %s %s", name, release.Version()))

	tmp, err := os.MkdirTemp("", "domscout-install-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	archive := filepath.Join(tmp, name)
	if err := i.github.Download(ctx, url, archive); err != nil {
		return err
	}
	extracted := filepath.Join(tmp, "extracted")
	if err := Extract(archive, extracted); err != nil {
		return err
	}

	binary := dep.BinaryName
	if i.sys.OS == "windows" {
		binary += ".exe"
	}
	src := filepath.Join(extracted, binary)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("binary %s not found in %s", binary, name)
	}

	if err := os.MkdirAll(i.sys.InstallDir, 0o755); err != nil {
		return fmt.Errorf("failed to create install directory %s: %w", i.sys.InstallDir, err)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", binary, err)
	}
	if err := os.WriteFile(filepath.Join(i.sys.InstallDir, binary), data, 0o755); err != nil {
		return fmt.Errorf("failed to copy binary: %w", err)
	}
	return nil
}

// find busca el binario en PATH y luego en InstallDir.
func (i *Installer) find(dep Dependency) (string, bool) {
	for _, bin := range dep.Binaries {
		if path, err := i.lookPath(bin); err == nil {
			return path, true
		}
	}
	if i.sys.InstallDir == "" {
		return "", false
	}
	for _, bin := range dep.Binaries {
		path := filepath.Join(i.sys.InstallDir, bin)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return lines[len(lines)-1]
}
