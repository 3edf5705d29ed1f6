package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "records"

// Registry holds all store metrics.
type Registry struct {
	reg *prometheus.Registry

	// Content metrics
	Changes  *prometheus.CounterVec
	Rejected *prometheus.CounterVec

	// Snapshot metrics
	PersistDuration prometheus.Histogram
	SnapshotBytes   prometheus.Gauge
	Snapshots       prometheus.Gauge
	Undos           prometheus.Counter
}

// NewRegistry creates the store metrics on a private Prometheus
// registry.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		Changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_total",
			Help:      "Committed record changes by collection and action.",
		}, []string{"collection", "action"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_assignments_total",
			Help:      "Attribute assignments rejected by validation, by error code.",
		}, []string{"collection", "code"}),
		PersistDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "persist_duration_seconds",
			Help:      "Time taken to write a snapshot.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		SnapshotBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_bytes",
			Help:      "Size of the most recently written snapshot.",
		}),
		Snapshots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshots",
			Help:      "Snapshot files in the snapshot directory.",
		}),
		Undos: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "undo_total",
			Help:      "Snapshots discarded by undo.",
		}),
	}

	r.reg.MustRegister(r.Changes, r.Rejected, r.PersistDuration, r.SnapshotBytes, r.Snapshots, r.Undos)
	return r
}

// Register adds an extra collector, such as a Collector over a store.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.reg.Register(c)
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveChange counts one committed change.
func (r *Registry) ObserveChange(collection, action string) {
	r.Changes.WithLabelValues(collection, action).Inc()
}

// ObserveReject counts one rejected assignment.
func (r *Registry) ObserveReject(collection, code string) {
	r.Rejected.WithLabelValues(collection, code).Inc()
}

// ObservePersist records a completed snapshot write.
func (r *Registry) ObservePersist(d time.Duration, size int64) {
	r.PersistDuration.Observe(d.Seconds())
	r.SnapshotBytes.Set(float64(size))
}

// WriteTextfile writes every metric to path in the text exposition format.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
