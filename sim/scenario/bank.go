package scenario

import (
	"fmt"

	"github.com/PSum/simulation-python-test/sim"
)

func init() {
	register(&Scenario{
		Name:        "bank",
		Description: "Customers queueing for a bank counter, optionally reneging when impatient",
		horizon:     func(cfg Config) int64 { return cfg.Bank.Horizon },
		setup:       setupBank,
	})
}

type bankStats struct {
	arrived, served, reneged int64
	waited                   int64
}

type bank struct {
	r       *runner
	counter *sim.Resource
	stats   bankStats
}

func setupBank(r *runner) error {
	cfg := r.cfg.Bank
	counter, err := sim.NewResource(r.env, "counter", cfg.Counters)
	if err != nil {
		return err
	}
	b := &bank{r: r, counter: counter}

	for _, c := range cfg.Customers {
		r.spawn(c.Name, func(p *sim.Process) error {
			if err := p.Sleep(c.Arrival); err != nil {
				return err
			}
			return b.customer(p, c.Name, c.Service, c.Patience)
		})
	}
	if cfg.Generated.Count > 0 {
		r.spawn("source", b.source(cfg.Generated))
	}

	r.finish = func() {
		s := b.stats
		r.res.Stats["arrived"] = float64(s.arrived)
		r.res.Stats["served"] = float64(s.served)
		r.res.Stats["reneged"] = float64(s.reneged)
		if s.served > 0 {
			r.res.Stats["mean_wait"] = float64(s.waited) / float64(s.served)
		}
	}
	return nil
}

// source generates customers with random inter-arrival, service and patience.
func (b *bank) source(g GeneratedCustomers) sim.ProcessFunc {
	arrivals := NewExponentialSampler(g.MeanInterarrival, 0)
	service := NewExponentialSampler(g.MeanService, 1)
	var patience TickSampler = ConstantSampler(0)
	if g.MaxPatience > 0 {
		patience = NewUniformIntSampler(g.MinPatience, g.MaxPatience)
	}
	arrRNG := b.r.rng.ForSubsystem(SubsystemArrivals)
	svcRNG := b.r.rng.ForSubsystem(SubsystemService)
	patRNG := b.r.rng.ForSubsystem(SubsystemPatience)
	return func(p *sim.Process) error {
		for i := 1; i <= g.Count; i++ {
			name := fmt.Sprintf("Generated %d", i)
			svc, pat := service.Sample(svcRNG), patience.Sample(patRNG)
			b.r.spawn(name, func(c *sim.Process) error {
				return b.customer(c, name, svc, pat)
			})
			if err := p.Sleep(arrivals.Sample(arrRNG)); err != nil {
				return err
			}
		}
		return nil
	}
}

// customer queues for the counter. With positive patience it races the grant
// against a timeout and leaves the queue if the timeout wins.
func (b *bank) customer(p *sim.Process, name string, service, patience int64) error {
	r := b.r
	arrived := p.Now()
	b.stats.arrived++
	r.printf("%s arrives at the bank at %d", name, arrived)

	serve := func() error {
		start := p.Now()
		b.stats.waited += start - arrived
		r.printf("%s starts being served at %d", name, start)
		if err := p.Sleep(service); err != nil {
			return err
		}
		r.printf("%s leaves the bank at %d", name, p.Now())
		b.stats.served++
		r.record("Counter", "Service", name, start, p.Now())
		return nil
	}
	if patience <= 0 {
		return b.counter.Use(p, serve)
	}

	req := b.counter.Request()
	timeout, err := r.env.Timeout(patience, nil)
	if err != nil {
		return err
	}
	v, err := p.Wait(r.env.AnyOf(req.Event, timeout))
	if err != nil {
		return err
	}
	if v.(*sim.Event) != req.Event && !req.Granted() {
		if err := req.Cancel(); err != nil {
			return err
		}
		b.stats.reneged++
		r.printf("%s reneges at %d after waiting %d", name, p.Now(), p.Now()-arrived)
		return nil
	}
	defer func() { _ = b.counter.Release(req) }()
	return serve()
}
