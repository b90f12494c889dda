// Package metrics exposes Prometheus instrumentation for the streaming
// engine: tick throughput, frame fan-out, session lifecycle, and
// analysis health.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the stream server.
type Metrics struct {
	registry *prometheus.Registry

	TicksTotal        prometheus.Counter
	FramesTotal       *prometheus.CounterVec // labels: type
	EmitFailures      prometheus.Counter
	SessionsActive    prometheus.Gauge
	SessionsTotal     prometheus.Counter
	AnalysesTotal     prometheus.Counter
	AnalysisFallbacks prometheus.Counter
	ComputeDur        prometheus.Histogram
	AlertsTriggered   prometheus.Counter
}

// New registers and returns all metrics on a private registry, so
// multiple instances (e.g. in tests) never collide.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_ticks_total",
			Help: "Total samples appended across all sessions",
		}),
		FramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_frames_total",
			Help: "Total frames emitted to clients (by frame type)",
		}, []string{"type"}),
		EmitFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_emit_failures_total",
			Help: "Emit attempts that found the sink closed",
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketpulse_sessions_active",
			Help: "Currently streaming sessions",
		}),
		SessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_sessions_total",
			Help: "Sessions opened since process start",
		}),
		AnalysesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_analyses_total",
			Help: "Analysis runs triggered",
		}),
		AnalysisFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_analysis_fallbacks_total",
			Help: "Analysis runs that used the neutral fallback",
		}),
		ComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketpulse_indicator_compute_duration_seconds",
			Help:    "Indicator bundle compute latency per tick",
			Buckets: []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001},
		}),
		AlertsTriggered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_alerts_triggered_total",
			Help: "Price alerts that fired",
		}),
	}

	reg.MustRegister(
		m.TicksTotal, m.FramesTotal, m.EmitFailures,
		m.SessionsActive, m.SessionsTotal,
		m.AnalysesTotal, m.AnalysisFallbacks,
		m.ComputeDur, m.AlertsTriggered,
	)
	return m
}

// Handler returns the HTTP handler serving this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
