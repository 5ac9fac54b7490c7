package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all application metrics on a private Prometheus
// registry, so tests can create independent instances.
type Registry struct {
	reg *prometheus.Registry

	// ConnectionsActive is the number of currently registered client
	// connections.
	ConnectionsActive prometheus.Gauge

	// ConnectionsTotal counts accepted connections.
	ConnectionsTotal prometheus.Counter

	// CommandsTotal counts processed commands by command name and
	// status ("ok" or "error").
	CommandsTotal *prometheus.CounterVec

	// SweepDuration samples how long full-table sweeps take.
	SweepDuration prometheus.Histogram
}

// NewRegistry creates a metrics registry with all command-path metrics
// registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netkv",
			Subsystem: "server",
			Name:      "connections_active",
			Help:      "Number of currently registered client connections.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netkv",
			Subsystem: "server",
			Name:      "connections_total",
			Help:      "Total accepted client connections.",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netkv",
			Subsystem: "server",
			Name:      "commands_total",
			Help:      "Processed commands by command name and status.",
		}, []string{"command", "status"}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "netkv",
			Subsystem: "store",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of full-table expiry sweeps.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}

	r.reg.MustRegister(
		r.ConnectionsActive,
		r.ConnectionsTotal,
		r.CommandsTotal,
		r.SweepDuration,
	)

	return r
}

// ConnOpened records an accepted connection.
func (r *Registry) ConnOpened() {
	r.ConnectionsTotal.Inc()
	r.ConnectionsActive.Inc()
}

// ConnClosed records a closed connection.
func (r *Registry) ConnClosed() {
	r.ConnectionsActive.Dec()
}

// MustRegister adds extra collectors (e.g. the table collector) to the
// registry.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.reg.MustRegister(cs...)
}

// Gather exposes the underlying registry's gather for tests.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	return r.reg.Gather()
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
