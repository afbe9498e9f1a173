package scenario

import (
	"github.com/robfig/cron/v3"

	"github.com/PSum/simulation-python-test/sim"
	"github.com/PSum/simulation-python-test/sim/calendar"
)

func init() {
	register(&Scenario{
		Name:        "supply-chain",
		Description: "A rice store drained by random customers and restocked by ship",
		horizon:     func(cfg Config) int64 { return cfg.SupplyChain.Horizon },
		setup:       setupSupplyChain,
	})
}

// store is shared by the customer and ship processes. Only one process body
// runs at a time, so no locking is needed.
type store struct {
	stock   int64
	history []int64
}

func setupSupplyChain(r *runner) error {
	cfg := r.cfg.SupplyChain
	st := &store{stock: cfg.InitialStock, history: []int64{cfg.InitialStock}}

	var (
		cal   calendar.Calendar
		sched cron.Schedule
	)
	if cfg.DepartureSchedule != "" {
		var err error
		if cal, err = calendar.New(cfg.Epoch, cfg.TickDuration); err != nil {
			return err
		}
		if sched, err = cal.Parse(cfg.DepartureSchedule); err != nil {
			return err
		}
	}

	demand := r.rng.ForSubsystem(SubsystemDemand)
	purchase := NewUniformIntSampler(cfg.MinPurchase, cfg.MaxPurchase)
	r.spawn("store", func(p *sim.Process) error {
		for {
			if Bernoulli(demand, cfg.CustomerProb) {
				r.printf("Customer number %d arrived.", p.Now())
				st.stock -= purchase.Sample(demand)
				r.printf("Current stock %d.", st.stock)
				st.history = append(st.history, st.stock)
			}
			if err := p.Sleep(1); err != nil {
				return err
			}
		}
	})

	voyage := NewUniformIntSampler(cfg.MinVoyage, cfg.MaxVoyage)
	shipRNG := r.rng.ForSubsystem(SubsystemShip)
	var deliveries int64
	r.spawn("ship", func(p *sim.Process) error {
		for {
			if sched != nil {
				if err := cal.WaitNext(p, sched); err != nil {
					return err
				}
			}
			r.printf("Ship starts at %d", p.Now())
			departed := p.Now()
			onSea := r.env.Process("on sea", func(p *sim.Process) error {
				return p.Sleep(voyage.Sample(shipRNG))
			})
			if _, err := p.Join(onSea); err != nil {
				return err
			}
			st.stock += cfg.ShipCapacity
			deliveries++
			r.record("Ship", "Voyage", "rice", departed, p.Now())
			r.printf("Ship reaches at %d", p.Now())
			r.printf("Store has %d units of rice.", st.stock)
			if err := p.Sleep(cfg.UnloadTicks); err != nil {
				return err
			}
		}
	})

	r.finish = func() {
		r.res.Series["stock"] = st.history
		r.res.Stats["final_stock"] = float64(st.stock)
		r.res.Stats["deliveries"] = float64(deliveries)
		r.res.Stats["sales"] = float64(len(st.history) - 1)
	}
	return nil
}
