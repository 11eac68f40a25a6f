// internal/adapters/output/streaming.go
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"domscout/internal/core/ports"
	"domscout/internal/platform/logx"
)

// EventLog escribe cada evento del pipeline como una línea JSON a medida que
// ocurre, para seguir un scan largo con tail -f o procesarlo después.
type EventLog struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	logger logx.Logger
}

var _ ports.Notifier = (*EventLog)(nil)

// EventRecord es una línea del log.
type EventRecord struct {
	Type       ports.EventType `json:"type"`
	Timestamp  time.Time       `json:"ts"`
	ScanID     string          `json:"scan_id"`
	Phase      string          `json:"phase,omitempty"`
	Step       int             `json:"step,omitempty"`
	Percent    int             `json:"percent,omitempty"`
	Message    string          `json:"message,omitempty"`
	Tool       string          `json:"tool,omitempty"`
	Status     string          `json:"status,omitempty"`
	Count      int             `json:"count,omitempty"`
	DurationMS int64           `json:"duration_ms,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// OpenEventLog abre (en modo append) el archivo del log.
func OpenEventLog(path string, logger logx.Logger) (*EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create events directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open events file: %w", err)
	}
	log := NewEventLog(f, logger)
	log.closer = f
	return log, nil
}

// NewEventLog escribe en w.
func NewEventLog(w io.Writer, logger logx.Logger) *EventLog {
	if logger == nil {
		logger = logx.NewNop()
	}
	return &EventLog{w: w, logger: logger.With("component", "event-log")}
}

// Notify implementa ports.Notifier.
func (l *EventLog) Notify(_ context.Context, ev ports.Event) {
	rec := EventRecord{
		Type:       ev.Type,
		Timestamp:  ev.Timestamp,
		ScanID:     ev.ScanID,
		Phase:      ev.Phase.String(),
		Step:       ev.Step,
		Percent:    ev.Percent,
		Message:    ev.Message,
		Tool:       ev.Tool,
		Status:     ev.Status.String(),
		Count:      ev.Count,
		DurationMS: ev.Duration.Milliseconds(),
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if ev.Err != nil {
		rec.Error = ev.Err.Error()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		l.logger.Warn("failed to encode event", "type", string(ev.Type), "error", err.Error())
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write(append(data, '\n')); err != nil {
		l.logger.Warn("failed to write event", "type", string(ev.Type), "error", err.Error())
	}
}

// Close cierra el archivo si lo abrió OpenEventLog.
func (l *EventLog) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
