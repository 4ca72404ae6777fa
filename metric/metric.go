// Package metric counts reconciliation activity of engines.
package metric

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

const (
	namespace = "audiograph"
	subsystem = "engine"
)

const (
	// ReconcileCounter counts reconciliations.
	ReconcileCounter = "Reconciles"
	// RestartCounter counts host restarts caused by output changes.
	RestartCounter = "Restarts"
	// AttachCounter counts attached units.
	AttachCounter = "Attach"
	// DetachCounter counts detached units.
	DetachCounter = "Detach"
	// ConnectCounter counts established connections.
	ConnectCounter = "Connect"
	// DisconnectCounter counts removed connections.
	DisconnectCounter = "Disconnect"
	// LiveGauge measures number of live nodes.
	LiveGauge = "Live"
)

var operations = []string{
	AttachCounter,
	DetachCounter,
	ConnectCounter,
	DisconnectCounter,
}

// Metric holds engine counters. Nil metric is valid and measures
// nothing.
type Metric struct {
	reconciles prometheus.Counter
	restarts   prometheus.Counter
	operations *prometheus.CounterVec
	live       prometheus.Gauge
}

// New creates metric and registers its collectors. If registerer is
// nil, collectors are not registered.
func New(reg prometheus.Registerer) *Metric {
	f := promauto.With(reg)
	return &Metric{
		reconciles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reconciles_total",
			Help:      "Number of topology reconciliations.",
		}),
		restarts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "restarts_total",
			Help:      "Number of host restarts caused by output changes.",
		}),
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "host_operations_total",
			Help:      "Number of successful host topology calls.",
		}, []string{"op"}),
		live: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "live_nodes",
			Help:      "Number of nodes attached after last reconciliation.",
		}),
	}
}

// Reconciled captures finished reconciliation.
func (m *Metric) Reconciled(live int) {
	if m == nil {
		return
	}
	m.reconciles.Inc()
	m.live.Set(float64(live))
}

// Restarted captures host restart.
func (m *Metric) Restarted() {
	if m == nil {
		return
	}
	m.restarts.Inc()
}

// Op captures successful host operation.
func (m *Metric) Op(op string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op).Inc()
}

// Get returns current values of all counters.
func (m *Metric) Get() map[string]string {
	values := make(map[string]string)
	if m == nil {
		return values
	}
	values[ReconcileCounter] = format(m.reconciles)
	values[RestartCounter] = format(m.restarts)
	values[LiveGauge] = format(m.live)
	for _, op := range operations {
		values[op] = format(m.operations.WithLabelValues(op))
	}
	return values
}

func format(c prometheus.Metric) string {
	var d dto.Metric
	if err := c.Write(&d); err != nil {
		return ""
	}
	switch {
	case d.Counter != nil:
		return fmt.Sprintf("%v", d.GetCounter().GetValue())
	case d.Gauge != nil:
		return fmt.Sprintf("%v", d.GetGauge().GetValue())
	}
	return ""
}
