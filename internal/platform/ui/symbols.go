// internal/platform/ui/symbols.go
package ui

import (
	"github.com/pterm/pterm"

	"domscout/internal/core/domain"
)

// Status es el estado visual de una herramienta o stage en la terminal.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusSuccess
	StatusWarning
	StatusError
	StatusSkipped
)

type statusLook struct {
	name   string
	symbol string
	color  pterm.Color
}

var looks = map[Status]statusLook{
	StatusPending: {"pending", "⏸", pterm.FgGray},
	StatusRunning: {"running", "⣾", pterm.FgCyan},
	StatusSuccess: {"success", "✓", pterm.FgGreen},
	StatusWarning: {"warning", "⚠", pterm.FgYellow},
	StatusError:   {"error", "✗", pterm.FgRed},
	StatusSkipped: {"skipped", "⊘", pterm.FgGray},
}

func (s Status) look() statusLook {
	if l, ok := looks[s]; ok {
		return l
	}
	return statusLook{"unknown", "?", pterm.FgDefault}
}

func (s Status) String() string { return s.look().name }

// Symbol retorna el símbolo Unicode del estado.
func (s Status) Symbol() string { return s.look().symbol }

func (s Status) Color() pterm.Color { return s.look().color }

func (s Status) Style() *pterm.Style { return pterm.NewStyle(s.Color()) }

// StatusFor traduce el estado de un Tool Run al estado visual.
// skipped gana sobre cualquier otro estado: la herramienta nunca corrió.
func StatusFor(run domain.ToolStatus, skipped bool) Status {
	switch {
	case skipped:
		return StatusSkipped
	case run == domain.ToolStatusFailed:
		return StatusError
	case run == domain.ToolStatusRunning:
		return StatusRunning
	case run == domain.ToolStatusIdle:
		return StatusPending
	default:
		return StatusSuccess
	}
}

var (
	IconTarget  = "🎯"
	IconStage   = "🔄"
	IconError   = "✗"
	IconSuccess = "✓"
	IconTime    = "⏱"
	IconResults = "📦"
	IconWorkers = "⚙️"
	IconShots   = "📸"
)

var (
	SeparatorHeavy = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
	SeparatorLight = "────────────────────────────────────────────"
)
