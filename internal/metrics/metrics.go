// Package metrics records backup run outcomes and exports them in the
// Prometheus text format for the node_exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "backup2zip"

// Metrics holds the run collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	// runsTotal counts runs by kind and result ("success" or "failure").
	runsTotal *prometheus.CounterVec

	filesArchived *prometheus.CounterVec
	bytesArchived *prometheus.CounterVec

	// lastSuccess is the unix time of the last successful run per kind.
	lastSuccess  *prometheus.GaugeVec
	lastDuration *prometheus.GaugeVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of backup runs",
		}, []string{"kind", "result"}),
		filesArchived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_archived_total",
			Help:      "Total number of files written to archives",
		}, []string{"kind"}),
		bytesArchived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_archived_total",
			Help:      "Total uncompressed bytes written to archives",
		}, []string{"kind"}),
		lastSuccess: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful backup run",
		}, []string{"kind"}),
		lastDuration: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Duration of the last backup run in seconds",
		}, []string{"kind"}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Observe records one finished run.
func (m *Metrics) Observe(kind string, files, bytes int64, d time.Duration, err error) {
	m.lastDuration.WithLabelValues(kind).Set(d.Seconds())

	if err != nil {
		m.runsTotal.WithLabelValues(kind, "failure").Inc()
		return
	}

	m.runsTotal.WithLabelValues(kind, "success").Inc()
	m.filesArchived.WithLabelValues(kind).Add(float64(files))
	m.bytesArchived.WithLabelValues(kind).Add(float64(bytes))
	m.lastSuccess.WithLabelValues(kind).SetToCurrentTime()
}

// WriteTextfile atomically writes every metric to path. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.reg)
}
