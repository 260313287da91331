// Package prometheus exports command metrics in the Prometheus text format.
package prometheus

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	statusApplied  = "applied"
	statusRejected = "rejected"
)

// Recorder implements core.MetricsRecorder on its own registry so several
// services (or tests) never collide on the global one.
type Recorder struct {
	registry *prometheus.Registry
	commands *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRecorder registers the command collectors under namespace. Go runtime
// and process collectors are registered alongside.
func NewRecorder(namespace string) *Recorder {
	if namespace == "" {
		namespace = "gtasync"
	}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Store commands by name and outcome.",
		}, []string{"command", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Time spent applying store commands.",
			Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .05},
		}, []string{"command"}),
	}
	r.registry.MustRegister(
		r.commands,
		r.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe implements core.MetricsRecorder.
func (r *Recorder) Observe(_ context.Context, command string, success bool, duration time.Duration) {
	if command == "" {
		return
	}
	status := statusApplied
	if !success {
		status = statusRejected
	}
	r.commands.WithLabelValues(command, status).Inc()
	r.duration.WithLabelValues(command).Observe(duration.Seconds())
}

// Registry exposes the underlying registry for additional collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry for scraping.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
