// internal/platform/metrics/metrics_test.go
package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
)

func TestRecorderCountsToolRuns(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()

	r.Notify(ctx, ports.Event{Type: ports.EventToolFinished, Tool: "subfinder", Status: domain.ToolStatusCompleted, Count: 12, Duration: time.Second})
	r.Notify(ctx, ports.Event{Type: ports.EventToolFinished, Tool: "subfinder", Status: domain.ToolStatusFailed, Duration: time.Second})
	r.Notify(ctx, ports.Event{Type: ports.EventToolSkipped, Tool: "dnsx"})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.toolRunsTotal.WithLabelValues("subfinder", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.toolRunsTotal.WithLabelValues("subfinder", "failed")))
	assert.Equal(t, 12.0, testutil.ToFloat64(r.toolResults.WithLabelValues("subfinder")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.toolSkipped.WithLabelValues("dnsx")))
}

func TestRecorderTracksScanLifecycle(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()

	r.Notify(ctx, ports.Event{Type: ports.EventScanStarted, ScanID: "s1"})
	r.Notify(ctx, ports.Event{Type: ports.EventPhaseChanged, ScanID: "s1", Phase: domain.PhaseEnumerating})
	assert.Equal(t, 1.0, testutil.ToFloat64(r.scansActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.phaseGauge.WithLabelValues("enumerating")))

	r.Notify(ctx, ports.Event{Type: ports.EventPhaseChanged, ScanID: "s1", Phase: domain.PhaseMerging})
	assert.Equal(t, 0.0, testutil.ToFloat64(r.phaseGauge.WithLabelValues("enumerating")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.phaseGauge.WithLabelValues("merging")))

	r.Notify(ctx, ports.Event{Type: ports.EventScanCompleted, ScanID: "s1", Duration: time.Minute})
	assert.Equal(t, 0.0, testutil.ToFloat64(r.scansActive))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.phaseGauge.WithLabelValues("merging")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.scansTotal.WithLabelValues("completed")))
}

func TestHandlerServesMetrics(t *testing.T) {
	r := NewRecorder()
	r.Notify(context.Background(), ports.Event{Type: ports.EventToolFinished, Tool: "httpx", Status: domain.ToolStatusCompleted, Count: 1})

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `domscout_tool_runs_total{status="completed",tool="httpx"} 1`)
}

func TestRecorderObservesRequests(t *testing.T) {
	r := NewRecorder()
	r.ObserveRequest("GET", "/api/scan/:id", 200, 20*time.Millisecond)
	r.ObserveRequest("GET", "/api/scan/:id", 404, time.Millisecond)
	r.ObserveRequest("GET", "/api/scan/:id", 200, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "/api/scan/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "/api/scan/:id", "404")))
}
