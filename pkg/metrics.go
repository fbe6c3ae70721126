package pkg

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the state of the last snapshot and the change history.
type Metrics struct {
	registry *prometheus.Registry

	records   prometheus.Gauge
	dropped   prometheus.Gauge
	partial   prometheus.Gauge
	byType    *prometheus.GaugeVec
	unknown   prometheus.Gauge
	snapshots prometheus.Counter
	changes   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pswatch", Name: "snapshot_processes",
			Help: "Processes in the last snapshot.",
		}),
		dropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pswatch", Name: "snapshot_dropped",
			Help: "Processes that vanished before they could be inspected in the last snapshot.",
		}),
		partial: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pswatch", Name: "snapshot_partial",
			Help: "Processes with at least one unreadable attribute in the last snapshot.",
		}),
		byType: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pswatch", Name: "snapshot_processes_by_type",
			Help: "Processes in the last snapshot by classification.",
		}, []string{"type"}),
		unknown: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pswatch", Name: "snapshot_unknown",
			Help: "Processes in the last snapshot missing from the essential list.",
		}),
		snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pswatch", Name: "snapshots_total",
			Help: "Snapshots taken.",
		}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pswatch", Name: "process_changes_total",
			Help: "Processes seen starting or exiting between snapshots.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(m.records, m.dropped, m.partial, m.byType, m.unknown, m.snapshots, m.changes)
	return m
}

func (m *Metrics) ObserveSnapshot(s *Snapshot) {
	m.snapshots.Inc()
	m.records.Set(float64(s.Len()))
	m.dropped.Set(float64(s.Dropped()))
	m.partial.Set(float64(s.Partial()))

	internal, external, unknown := 0, 0, 0
	for _, p := range s.PidProcess {
		if p.Type == Internal {
			internal++
		} else {
			external++
		}
		if p.Known != Essential {
			unknown++
		}
	}
	m.byType.WithLabelValues(string(Internal)).Set(float64(internal))
	m.byType.WithLabelValues(string(External)).Set(float64(external))
	m.unknown.Set(float64(unknown))
}

func (m *Metrics) ObserveChange(c Change) {
	m.changes.WithLabelValues("added").Add(float64(len(c.Added)))
	m.changes.WithLabelValues("removed").Add(float64(len(c.Removed)))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
