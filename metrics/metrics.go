// Package metrics exposes Prometheus counters for image rendering.
package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels a finished render.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// Recorder publishes Prometheus metrics for render requests.
type Recorder struct {
	gatherer prometheus.Gatherer
	handler  http.Handler

	renders       *prometheus.CounterVec
	renderLatency *prometheus.HistogramVec
}

// NewRecorder constructs a Recorder. When reg is nil a dedicated registry is
// created so recorders in tests do not collide on the default registerer.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	renders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qrchart",
		Name:      "renders_total",
		Help:      "QR images requested from a provider.",
	}, []string{"provider", "outcome"})

	renderLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "qrchart",
		Name:      "render_duration_seconds",
		Help:      "Time spent obtaining a QR image from a provider.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"provider"})

	reg.MustRegister(renders, renderLatency)

	return &Recorder{
		gatherer:      reg,
		handler:       promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		renders:       renders,
		renderLatency: renderLatency,
	}
}

// Handler exposes the Prometheus HTTP handler for the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "metrics unavailable", http.StatusServiceUnavailable)
		})
	}
	return r.handler
}

// Gatherer returns the underlying gatherer.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.gatherer
}

// ObserveRender records one provider call.
func (r *Recorder) ObserveRender(provider string, outcome Outcome, duration time.Duration) {
	if r == nil {
		return
	}
	name := strings.TrimSpace(provider)
	if name == "" {
		name = "unknown"
	}
	r.renders.WithLabelValues(name, string(outcome)).Inc()
	r.renderLatency.WithLabelValues(name).Observe(duration.Seconds())
}
