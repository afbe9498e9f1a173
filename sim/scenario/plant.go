package scenario

import (
	"fmt"

	"github.com/PSum/simulation-python-test/sim"
)

func init() {
	register(&Scenario{
		Name:        "plant",
		Description: "Tanks cycling through dosing, induction, dispersing and transfer on shared equipment",
		horizon:     func(cfg Config) int64 { return cfg.Plant.Horizon },
		setup:       setupPlant,
	})
}

// Resource names as they appear in the Gantt trace.
const (
	plantMachine = "Machine"
	plantPump    = "Pump"
)

type tank struct {
	name  string
	empty bool
}

type plant struct {
	r     *runner
	cfg   PlantConfig
	conti *sim.Resource
	pump  *sim.Resource
}

func setupPlant(r *runner) error {
	cfg := r.cfg.Plant
	conti, err := sim.NewResource(r.env, "conti", cfg.MachineUnits)
	if err != nil {
		return err
	}
	pump, err := sim.NewResource(r.env, "liquid pump", cfg.PumpUnits)
	if err != nil {
		return err
	}
	pl := &plant{r: r, cfg: cfg, conti: conti, pump: pump}
	for _, name := range cfg.Tanks {
		t := &tank{name: name, empty: true}
		r.spawn("cycle "+name, func(p *sim.Process) error { return pl.cycle(p, t) })
	}
	r.finish = func() {
		busy := map[string]int64{}
		for _, iv := range r.res.Intervals {
			busy[iv.Resource] += iv.Duration()
		}
		r.res.Stats["batches"] = 0
		for _, iv := range r.res.Intervals {
			if iv.Task == "Transfer" {
				r.res.Stats["batches"]++
			}
		}
		if r.res.Now > 0 {
			r.res.Stats["machine_utilization"] = float64(busy[plantMachine]) / float64(r.res.Now)
			r.res.Stats["pump_utilization"] = float64(busy[plantPump]) / float64(r.res.Now)
		}
	}
	return nil
}

// cycle runs one tank forever: dose when empty, then induct, disperse and
// transfer, each step as a child process on the shared equipment.
func (pl *plant) cycle(p *sim.Process, t *tank) error {
	for {
		if t.empty {
			if err := pl.step(p, t, pl.pump, plantPump, "Liquid dosing", pl.cfg.DosingTicks,
				"filling liquid", "liquid filled", func() { t.empty = false }); err != nil {
				return err
			}
		}
		if err := pl.step(p, t, pl.conti, plantMachine, "Powder induction", pl.cfg.InductionTicks,
			"powder induction started", "powder induction finished", nil); err != nil {
			return err
		}
		if err := pl.step(p, t, pl.conti, plantMachine, "Dispersing", pl.cfg.DispersTicks,
			"dispersing started", "dispersing finished", nil); err != nil {
			return err
		}
		if err := pl.step(p, t, pl.conti, plantMachine, "Transfer", pl.cfg.TransferTicks,
			"transfer started", "transfer finished", func() { t.empty = true }); err != nil {
			return err
		}
	}
}

// step spawns a child that holds res for ticks and waits for it to finish.
func (pl *plant) step(p *sim.Process, t *tank, res *sim.Resource, label, task string, ticks int64,
	started, finished string, after func()) error {
	r := pl.r
	child := r.env.Process(fmt.Sprintf("%s %s", task, t.name), func(c *sim.Process) error {
		return res.Use(c, func() error {
			start := c.Now()
			r.printf("%d min: %s %s", start, t.name, started)
			if err := c.Sleep(ticks); err != nil {
				return err
			}
			r.printf("%d min: %s %s", c.Now(), t.name, finished)
			if after != nil {
				after()
			}
			r.record(label, task, t.name, start, c.Now())
			return nil
		})
	})
	_, err := p.Join(child)
	return err
}
