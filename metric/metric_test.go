package metric_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"pipelined.dev/audiograph/metric"
)

func TestMetric(t *testing.T) {
	var tests = []struct {
		routines int
		calls    int
		live     int
		expected map[string]string
	}{
		{
			routines: 1,
			calls:    1,
			live:     3,
			expected: map[string]string{
				metric.ReconcileCounter:  "1",
				metric.RestartCounter:    "1",
				metric.AttachCounter:     "1",
				metric.DetachCounter:     "1",
				metric.ConnectCounter:    "1",
				metric.DisconnectCounter: "1",
				metric.LiveGauge:         "3",
			},
		},
		{
			routines: 4,
			calls:    10,
			live:     0,
			expected: map[string]string{
				metric.ReconcileCounter:  "40",
				metric.RestartCounter:    "40",
				metric.AttachCounter:     "40",
				metric.DetachCounter:     "40",
				metric.ConnectCounter:    "40",
				metric.DisconnectCounter: "40",
				metric.LiveGauge:         "0",
			},
		},
	}
	for _, c := range tests {
		m := metric.New(prometheus.NewRegistry())
		var wg sync.WaitGroup
		wg.Add(c.routines)
		for i := 0; i < c.routines; i++ {
			go func() {
				defer wg.Done()
				for j := 0; j < c.calls; j++ {
					m.Reconciled(c.live)
					m.Restarted()
					m.Op(metric.AttachCounter)
					m.Op(metric.DetachCounter)
					m.Op(metric.ConnectCounter)
					m.Op(metric.DisconnectCounter)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, c.expected, m.Get())
	}
}

func TestRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metric.New(reg)
	m.Reconciled(2)
	m.Op(metric.AttachCounter)
	m.Op(metric.AttachCounter)

	expected := `
# HELP audiograph_engine_live_nodes Number of nodes attached after last reconciliation.
# TYPE audiograph_engine_live_nodes gauge
audiograph_engine_live_nodes 2
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "audiograph_engine_live_nodes")
	assert.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "audiograph_engine_host_operations_total")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNilMetric(t *testing.T) {
	var m *metric.Metric
	m.Reconciled(1)
	m.Restarted()
	m.Op(metric.ConnectCounter)
	assert.Empty(t, m.Get())
}
