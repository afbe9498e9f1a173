// Package metrics exposes kernel activity as Prometheus metrics.
//
// A Collector is registered on a caller-supplied registry rather than the
// global one, so independent replications can each keep their own counters.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/PSum/simulation-python-test/sim"
)

// Collector implements sim.Observer and records what it sees.
// No cardinality explosion: labels are resource names and outcomes only,
// never process or request identities.
type Collector struct {
	eventsProcessed *prometheus.CounterVec
	requests        *prometheus.CounterVec
	grants          *prometheus.CounterVec
	releases        *prometheus.CounterVec
	cancellations   *prometheus.CounterVec
	waitTicks       *prometheus.CounterVec
	holders         *prometheus.GaugeVec
	queueLength     *prometheus.GaugeVec
	terminations    *prometheus.CounterVec
	virtualTime     prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		eventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sim_events_processed_total",
			Help: "Total number of events fired by the dispatch step, by outcome.",
		}, []string{"outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sim_resource_requests_total",
			Help: "Total number of acquisition requests, by resource.",
		}, []string{"resource"}),
		grants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sim_resource_grants_total",
			Help: "Total number of granted requests, by resource.",
		}, []string{"resource"}),
		releases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sim_resource_releases_total",
			Help: "Total number of releases, by resource.",
		}, []string{"resource"}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sim_resource_cancellations_total",
			Help: "Total number of requests withdrawn before being granted, by resource.",
		}, []string{"resource"}),
		waitTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sim_resource_wait_ticks_total",
			Help: "Total virtual time granted requests spent queued, by resource.",
		}, []string{"resource"}),
		holders: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sim_resource_holders",
			Help: "Current number of holders, by resource.",
		}, []string{"resource"}),
		queueLength: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sim_resource_queue_length",
			Help: "Current number of waiting requests, by resource.",
		}, []string{"resource"}),
		terminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sim_process_terminations_total",
			Help: "Total number of terminated processes, by outcome.",
		}, []string{"outcome"}),
		virtualTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sim_virtual_time_ticks",
			Help: "Virtual time of the most recently processed event.",
		}),
	}
	for _, m := range []prometheus.Collector{
		c.eventsProcessed, c.requests, c.grants, c.releases, c.cancellations,
		c.waitTicks, c.holders, c.queueLength, c.terminations, c.virtualTime,
	} {
		if err := reg.Register(m); err != nil {
			return nil, fmt.Errorf("registering sim metrics: %w", err)
		}
	}
	return c, nil
}

var _ sim.Observer = (*Collector)(nil)

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func (c *Collector) track(r *sim.Resource) {
	c.holders.WithLabelValues(r.Name()).Set(float64(r.Count()))
	c.queueLength.WithLabelValues(r.Name()).Set(float64(r.QueueLen()))
}

// EventProcessed implements sim.Observer.
func (c *Collector) EventProcessed(now int64, ev *sim.Event) {
	c.eventsProcessed.WithLabelValues(outcome(ev.OK())).Inc()
	c.virtualTime.Set(float64(now))
}

// RequestMade implements sim.Observer.
func (c *Collector) RequestMade(_ int64, req *sim.Request) {
	c.requests.WithLabelValues(req.Resource().Name()).Inc()
	c.track(req.Resource())
}

// RequestGranted implements sim.Observer.
func (c *Collector) RequestGranted(now int64, req *sim.Request) {
	name := req.Resource().Name()
	c.grants.WithLabelValues(name).Inc()
	c.waitTicks.WithLabelValues(name).Add(float64(now - req.RequestedAt()))
	c.track(req.Resource())
}

// RequestReleased implements sim.Observer.
func (c *Collector) RequestReleased(_ int64, req *sim.Request) {
	c.releases.WithLabelValues(req.Resource().Name()).Inc()
	c.track(req.Resource())
}

// RequestCancelled implements sim.Observer.
func (c *Collector) RequestCancelled(_ int64, req *sim.Request) {
	c.cancellations.WithLabelValues(req.Resource().Name()).Inc()
	c.track(req.Resource())
}

// ProcessTerminated implements sim.Observer.
func (c *Collector) ProcessTerminated(_ int64, p *sim.Process) {
	c.terminations.WithLabelValues(outcome(p.State() == sim.StateSucceeded)).Inc()
}

// Dump writes every gathered metric family in the Prometheus text exposition
// format, sorted by family name.
func Dump(g prometheus.Gatherer, w io.Writer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encoding %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
