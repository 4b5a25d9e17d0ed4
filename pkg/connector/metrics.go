package connector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's collectors. A nil *Metrics records nothing.
type Metrics struct {
	resolutions      *prometheus.CounterVec
	writeBackTasks   *prometheus.CounterVec
	writeBackPending prometheus.Gauge
}

// NewMetrics registers the collectors on reg. Passing nil uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		// Labels: outcome (remote, created, cache_only)
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semilink",
			Name:      "profile_resolutions_total",
			Help:      "Profile resolutions by outcome",
		}, []string{"outcome"}),
		// Labels: kind, result (ok, retry, dropped)
		writeBackTasks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semilink",
			Name:      "writeback_tasks_total",
			Help:      "Write-back task attempts by kind and result",
		}, []string{"kind", "result"}),
		writeBackPending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "semilink",
			Name:      "writeback_pending",
			Help:      "Write-back tasks waiting to be sent",
		}),
	}
}

func (m *Metrics) resolution(outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) writeBack(kind TaskKind, result string) {
	if m == nil {
		return
	}
	m.writeBackTasks.WithLabelValues(string(kind), result).Inc()
}

func (m *Metrics) pending(n int) {
	if m == nil {
		return
	}
	m.writeBackPending.Set(float64(n))
}
