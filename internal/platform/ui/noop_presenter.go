// internal/platform/ui/noop_presenter.go
package ui

import "time"

// NoopPresenter descarta toda la salida. Lo usan `serve`, `scans` y los tests.
type NoopPresenter struct{}

func NewNoopPresenter() *NoopPresenter { return &NoopPresenter{} }

func (NoopPresenter) Start(ScanInfo) {}
func (NoopPresenter) StartStage(StageInfo) {}
func (NoopPresenter) FinishStage(int, time.Duration) {}
func (NoopPresenter) StartTool(int, string) {}
func (NoopPresenter) FinishTool(string, Status, time.Duration, int) {}
func (NoopPresenter) Info(string) {}
func (NoopPresenter) Warning(string) {}
func (NoopPresenter) Error(string) {}
func (NoopPresenter) Finish(ScanStats) {}
func (NoopPresenter) Close() error { return nil }
