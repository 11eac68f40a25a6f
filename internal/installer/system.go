package installer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// DetectSystem gathers system information for dependency installation.
// installDir vacío usa el directorio de binarios de Go (GOBIN o GOPATH/bin).
func DetectSystem(ctx context.Context, installDir string) (SystemInfo, error) {
	info := SystemInfo{
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		PathEntries: filepath.SplitList(os.Getenv("PATH")),
	}

	if v, err := detectGoVersion(ctx); err == nil {
		info.GoVersion = v
	}

	if installDir == "" {
		installDir = goBinDir(ctx)
	}
	if strings.HasPrefix(installDir, "$HOME") || strings.HasPrefix(installDir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return info, fmt.Errorf("failed to get home directory: %w", err)
		}
		installDir = filepath.Join(home, strings.TrimLeft(strings.TrimPrefix(installDir, "$HOME"), "~/"))
	}
	info.InstallDir = installDir
	return info, nil
}

// detectGoVersion parsea "go version go1.24.4 linux/amd64".
func detectGoVersion(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "go", "version").Output()
	if err != nil {
		return "", fmt.Errorf("go not found in PATH: %w", err)
	}
	return parseGoVersion(string(out))
}

func parseGoVersion(out string) (string, error) {
	parts := strings.Fields(out)
	if len(parts) >= 3 && strings.HasPrefix(parts[2], "go") {
		return strings.TrimPrefix(parts[2], "go"), nil
	}
	return "", fmt.Errorf("unexpected go version output: %s", strings.TrimSpace(out))
}

func goBinDir(ctx context.Context) string {
	if out, err := exec.CommandContext(ctx, "go", "env", "GOBIN").Output(); err == nil {
		if dir := strings.TrimSpace(string(out)); dir != "" {
			return dir
		}
	}
	if out, err := exec.CommandContext(ctx, "go", "env", "GOPATH").Output(); err == nil {
		if dir := strings.TrimSpace(string(out)); dir != "" {
			return filepath.Join(filepath.SplitList(dir)[0], "bin")
		}
	}
	return "$HOME/go/bin"
}

// IsInPath checks if a directory is in the PATH environment variable.
func IsInPath(dir string, pathEntries []string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	for _, entry := range pathEntries {
		absEntry, err := filepath.Abs(entry)
		if err != nil {
			continue
		}
		if absEntry == absDir {
			return true
		}
	}
	return false
}

// PathWarning retorna el aviso para agregar dir al PATH.
func PathWarning(dir string) string {
	profile := "~/.bashrc"
	if shell := os.Getenv("SHELL"); strings.HasSuffix(shell, "zsh") {
		profile = "~/.zshrc"
	}
	return fmt.Sprintf("%s is not in your PATH.\n  export PATH=\"%s:$PATH\"\nAdd the line to %s to make it permanent.", dir, dir, profile)
}

func execRunner(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	return cmd.CombinedOutput()
}
