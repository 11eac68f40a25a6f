// Package metrics exposes pipeline counters for Prometheus scraping.
// Metrics live on a private registry so tests and embedders never collide
// with the global default registry.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"domscout/internal/core/ports"
)

const namespace = "domscout"

// Compile-time interface check.
var _ ports.Notifier = (*Recorder)(nil)

// Recorder turns pipeline events into Prometheus metrics.
type Recorder struct {
	registry *prometheus.Registry

	scansTotal    *prometheus.CounterVec
	scansActive   prometheus.Gauge
	scanDuration  prometheus.Histogram
	toolRunsTotal *prometheus.CounterVec
	toolDuration  *prometheus.HistogramVec
	toolResults   *prometheus.CounterVec
	toolSkipped   *prometheus.CounterVec
	phaseGauge    *prometheus.GaugeVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec

	mu      sync.Mutex
	current map[string]string
}

// NewRecorder creates a recorder with all metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		current:  make(map[string]string),
	}

	r.scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Scans that reached a terminal state, by outcome",
		},
		[]string{"status"},
	)
	r.scansActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scans_active",
		Help:      "Scans currently running",
	})
	r.scanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scan_duration_seconds",
		Help:      "Wall time of full pipeline runs",
		Buckets:   []float64{30, 60, 300, 600, 1800, 3600, 7200},
	})
	r.toolRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_runs_total",
			Help:      "Finished tool runs, by tool and status",
		},
		[]string{"tool", "status"},
	)
	r.toolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Wall time of tool runs",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		},
		[]string{"tool"},
	)
	r.toolResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_results_total",
			Help:      "Result entries produced by tools",
		},
		[]string{"tool"},
	)
	r.toolSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_skipped_total",
			Help:      "Tool runs skipped because their input artifact was missing or empty",
		},
		[]string{"tool"},
	)
	r.phaseGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scans_in_phase",
			Help:      "Running scans per pipeline phase",
		},
		[]string{"phase"},
	)

	r.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests, by method, route and status code",
		},
		[]string{"method", "route", "code"},
	)
	r.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	r.registry.MustRegister(
		r.scansTotal,
		r.scansActive,
		r.scanDuration,
		r.toolRunsTotal,
		r.toolDuration,
		r.toolResults,
		r.toolSkipped,
		r.phaseGauge,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

// Registry returns the private registry, mostly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one API request. route is the route template
// (e.g. /api/scan/:id), never the raw path.
func (r *Recorder) ObserveRequest(method, route string, code int, d time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Notify implements ports.Notifier.
func (r *Recorder) Notify(_ context.Context, ev ports.Event) {
	switch ev.Type {
	case ports.EventScanStarted:
		r.scansActive.Inc()
	case ports.EventScanCompleted, ports.EventScanFailed:
		r.scansActive.Dec()
		r.leavePhase(ev.ScanID)
		status := "completed"
		if ev.Type == ports.EventScanFailed {
			status = "failed"
		}
		r.scansTotal.WithLabelValues(status).Inc()
		if ev.Duration > 0 {
			r.scanDuration.Observe(ev.Duration.Seconds())
		}
	case ports.EventPhaseChanged:
		if ev.Phase.IsTerminal() {
			return
		}
		r.leavePhase(ev.ScanID)
		r.mu.Lock()
		r.current[ev.ScanID] = ev.Phase.String()
		r.mu.Unlock()
		r.phaseGauge.WithLabelValues(ev.Phase.String()).Inc()
	case ports.EventToolFinished:
		r.toolRunsTotal.WithLabelValues(ev.Tool, ev.Status.String()).Inc()
		r.toolDuration.WithLabelValues(ev.Tool).Observe(ev.Duration.Seconds())
		if ev.Count > 0 {
			r.toolResults.WithLabelValues(ev.Tool).Add(float64(ev.Count))
		}
	case ports.EventToolSkipped:
		r.toolSkipped.WithLabelValues(ev.Tool).Inc()
	}
}

func (r *Recorder) leavePhase(scanID string) {
	r.mu.Lock()
	prev, ok := r.current[scanID]
	delete(r.current, scanID)
	r.mu.Unlock()
	if ok {
		r.phaseGauge.WithLabelValues(prev).Dec()
	}
}
