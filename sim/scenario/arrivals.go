package scenario

import "github.com/PSum/simulation-python-test/sim"

func init() {
	register(&Scenario{
		Name:        "arrivals",
		Description: "Minute-by-minute Bernoulli trials until a customer arrives, once per tick",
		horizon:     func(cfg Config) int64 { return cfg.Arrivals.Num },
		setup:       setupArrivals,
	})
}

// setupArrivals repeats Bernoulli trials within a tick until one succeeds,
// then moves to the next tick. Series "intervals" holds the number of trials
// each arrival took, one entry per tick.
func setupArrivals(r *runner) error {
	cfg := r.cfg.Arrivals
	rng := r.rng.ForSubsystem(SubsystemArrivals)
	r.spawn("purchase", func(p *sim.Process) error {
		var minutes int64
		for {
			minutes++
			if !Bernoulli(rng, cfg.ProbArrival) {
				continue
			}
			r.printf("Customer number %d arrived.", p.Now())
			r.printf("It took %d minutes.", minutes)
			r.res.Series["intervals"] = append(r.res.Series["intervals"], minutes)
			minutes = 0
			if err := p.Sleep(1); err != nil {
				return err
			}
		}
	})
	r.finish = func() {
		var total int64
		for _, m := range r.res.Series["intervals"] {
			total += m
		}
		r.res.Stats["arrivals"] = float64(len(r.res.Series["intervals"]))
		if n := len(r.res.Series["intervals"]); n > 0 {
			r.res.Stats["mean_minutes"] = float64(total) / float64(n)
		}
	}
	return nil
}
