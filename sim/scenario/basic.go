package scenario

import "github.com/PSum/simulation-python-test/sim"

func init() {
	register(&Scenario{
		Name:        "basic",
		Description: "One process waits on a timeout carrying a value",
		horizon:     func(Config) int64 { return 0 },
		setup:       setupBasic,
	})
}

func setupBasic(r *runner) error {
	cfg := r.cfg.Basic
	r.spawn("example", func(p *sim.Process) error {
		v, err := p.Timeout(cfg.Delay, cfg.Value)
		if err != nil {
			return err
		}
		r.printf("now=%d, value=%d", p.Now(), v)
		r.res.Stats["value"] = float64(v.(int))
		return nil
	})
	return nil
}
