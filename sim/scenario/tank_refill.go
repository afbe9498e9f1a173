package scenario

import "github.com/PSum/simulation-python-test/sim"

func init() {
	register(&Scenario{
		Name:        "tank-refill",
		Description: "A tank that is refilled when empty and checked every tick otherwise",
		horizon:     func(cfg Config) int64 { return cfg.TankRefill.Horizon },
		setup:       setupTankRefill,
	})
}

func setupTankRefill(r *runner) error {
	cfg := r.cfg.TankRefill
	empty := true
	var refills int64
	r.spawn("plant", func(p *sim.Process) error {
		for {
			if !empty {
				r.printf("Tank is full at %d mins", p.Now())
				if err := p.Sleep(cfg.CheckTicks); err != nil {
					return err
				}
				continue
			}
			r.printf("Refilling tank at %d mins", p.Now())
			fill := r.env.Process("fill tank", func(p *sim.Process) error {
				r.printf("Refilling the tank")
				start := p.Now()
				if err := p.Sleep(cfg.RefillTicks); err != nil {
					return err
				}
				empty = false
				refills++
				r.record("Tank", "Refill", "tank", start, p.Now())
				return nil
			})
			if _, err := p.Join(fill); err != nil {
				return err
			}
		}
	})
	r.finish = func() {
		r.res.Stats["refills"] = float64(refills)
	}
	return nil
}
