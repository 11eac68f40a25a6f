// Package installer checks and installs the external binaries the scan
// pipeline shells out to.
package installer

import (
	"context"
	"time"
)

// Method is how a dependency gets installed.
type Method string

const (
	MethodGo     Method = "go"     // go install <package>@latest
	MethodPip    Method = "pip"    // python3 -m pip install <package>
	MethodGitHub Method = "github" // latest GitHub release asset
	MethodSystem Method = "system" // distro package manager, reported only
)

// Status represents the installation status of a dependency.
type Status string

const (
	StatusSuccess          Status = "success"
	StatusFailed           Status = "failed"
	StatusSkipped          Status = "skipped"
	StatusAlreadyInstalled Status = "already_installed"
	StatusMissing          Status = "missing"
)

// SystemInfo contains system detection information.
type SystemInfo struct {
	OS          string // linux, darwin, windows
	Arch        string // amd64, arm64
	GoVersion   string
	InstallDir  string
	PathEntries []string
}

// Dependency describes one external binary and how to obtain it.
type Dependency struct {
	// Tool nombre de la herramienta del pipeline que lo necesita
	Tool string

	// Binaries nombres aceptados en PATH, en orden de preferencia
	Binaries []string

	Method  Method
	Package string // módulo Go o paquete pip/apt

	// GitHub releases
	Repo          string
	AssetPatterns map[string]string // "linux_amd64" -> "findomain-linux*.zip"
	BinaryName    string
}

// Result es el resultado de verificar o instalar una dependencia.
type Result struct {
	Dependency Dependency
	Status     Status
	Path       string
	Message    string
	Error      error
	Duration   time.Duration
}

// Runner ejecuta un comando y retorna su salida combinada. env se agrega
// al entorno del proceso actual.
type Runner func(ctx context.Context, env []string, name string, args ...string) ([]byte, error)
