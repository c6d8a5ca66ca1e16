package syncqueue

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metric names.
const (
	MetricChangesTotal         = "paykeeper_sync_changes_total"
	MetricCyclesTotal          = "paykeeper_sync_cycles_total"
	MetricCycleDurationSeconds = "paykeeper_sync_cycle_duration_seconds"
	MetricPendingChanges       = "paykeeper_sync_pending_changes"
	MetricQuarantinedChanges   = "paykeeper_sync_quarantined_changes"
)

// Metrics records queue activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	changesTotal  *prometheus.CounterVec
	cyclesTotal   *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	pending       prometheus.Gauge
	quarantined   prometheus.Gauge
}

// NewMetrics creates the queue metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		changesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricChangesTotal,
			Help: "Pending changes processed by drain cycles, by result.",
		}, []string{"result"}),
		cyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricCyclesTotal,
			Help: "Drain cycles run, by outcome.",
		}, []string{"outcome"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricCycleDurationSeconds,
			Help:    "Duration of drain cycles.",
			Buckets: prometheus.DefBuckets,
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricPendingChanges,
			Help: "Changes waiting for automatic replay.",
		}),
		quarantined: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricQuarantinedChanges,
			Help: "Changes in failed or conflict state.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.changesTotal, m.cyclesTotal, m.cycleDuration, m.pending, m.quarantined)
	}
	return m
}

func (m *Metrics) change(result string) {
	if m == nil {
		return
	}
	m.changesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) cycle(outcome Outcome, d time.Duration) {
	if m == nil {
		return
	}
	m.cyclesTotal.WithLabelValues(string(outcome)).Inc()
	m.cycleDuration.Observe(d.Seconds())
}

func (m *Metrics) counts(pending, quarantined int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(pending))
	m.quarantined.Set(float64(quarantined))
}
