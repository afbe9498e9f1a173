package metrics

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PSum/simulation-python-test/sim"
)

func runCounter(t *testing.T, c *Collector) {
	t.Helper()
	env := sim.NewEnvironment(sim.WithObserver(c))
	counter, err := sim.NewResource(env, "counter", 1)
	require.NoError(t, err)
	for _, service := range []int64{5, 3} {
		env.Process("customer", func(p *sim.Process) error {
			return counter.Use(p, func() error { return p.Sleep(service) })
		})
	}
	require.NoError(t, env.Run())
}

func TestCollector_CountsResourceActivity(t *testing.T) {
	// GIVEN a collector on a fresh registry
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	// WHEN two customers share a capacity-1 counter for 5 and 3 ticks
	runCounter(t, c)

	// THEN grants, releases and waiting time reflect the trace
	assert.Equal(t, 2.0, testutil.ToFloat64(c.requests.WithLabelValues("counter")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.grants.WithLabelValues("counter")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.releases.WithLabelValues("counter")))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.waitTicks.WithLabelValues("counter")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.holders.WithLabelValues("counter")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.queueLength.WithLabelValues("counter")))
	assert.Equal(t, 8.0, testutil.ToFloat64(c.eventsProcessed.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.terminations.WithLabelValues("success")))
	assert.Equal(t, 8.0, testutil.ToFloat64(c.virtualTime))
}

func TestCollector_CountsCancellationsAndFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)
	env := sim.NewEnvironment(sim.WithObserver(c))
	pump, err := sim.NewResource(env, "pump", 1)
	require.NoError(t, err)
	held := pump.Request()
	waiting := pump.Request()
	require.NoError(t, waiting.Cancel())
	env.Process("broken", func(p *sim.Process) error { panic("seized") })

	require.NoError(t, env.Run())

	assert.True(t, held.Granted())
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cancellations.WithLabelValues("pump")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.holders.WithLabelValues("pump")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.terminations.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.eventsProcessed.WithLabelValues("failure")))
}

func TestNewCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)

	_, err = NewCollector(reg)

	assert.Error(t, err)
}

func TestDump_ListsSamples(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)
	runCounter(t, c)

	var buf bytes.Buffer
	require.NoError(t, Dump(reg, &buf))

	out := buf.String()
	assert.Contains(t, out, "sim_resource_grants_total{resource=\"counter\"} 2\n")
	assert.Contains(t, out, "sim_virtual_time_ticks 8\n")
	assert.Contains(t, out, "sim_process_terminations_total{outcome=\"success\"} 2\n")
	assert.Contains(t, out, "# TYPE sim_resource_holders gauge\n")
}

func TestDump_EncodesHistograms(t *testing.T) {
	// GIVEN a registry that also carries a histogram
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_service_ticks",
		Help:    "Service time per customer.",
		Buckets: []float64{5, 10},
	})
	require.NoError(t, reg.Register(h))
	h.Observe(3)
	h.Observe(7)

	// WHEN dumped
	var buf bytes.Buffer
	require.NoError(t, Dump(reg, &buf))

	// THEN buckets, sum and count are all present
	out := buf.String()
	assert.Contains(t, out, "sim_service_ticks_bucket{le=\"5\"} 1\n")
	assert.Contains(t, out, "sim_service_ticks_bucket{le=\"+Inf\"} 2\n")
	assert.Contains(t, out, "sim_service_ticks_sum 10\n")
	assert.Contains(t, out, "sim_service_ticks_count 2\n")
}
