package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the parameters of every scenario. A YAML file only needs to
// list the fields it overrides; unknown fields are rejected.
type Config struct {
	Basic       BasicConfig       `yaml:"basic"`
	Arrivals    ArrivalsConfig    `yaml:"arrivals"`
	SupplyChain SupplyChainConfig `yaml:"supply_chain"`
	TankRefill  TankRefillConfig  `yaml:"tank_refill"`
	Plant       PlantConfig       `yaml:"plant"`
	Bank        BankConfig        `yaml:"bank"`
}

// BasicConfig is a single timeout of Delay ticks carrying Value.
type BasicConfig struct {
	Delay int64 `yaml:"delay"`
	Value int   `yaml:"value"`
}

// ArrivalsConfig runs Bernoulli trials until a customer arrives, once per tick.
type ArrivalsConfig struct {
	Num         int64   `yaml:"num"`
	ProbArrival float64 `yaml:"prob_arrival"`
}

// SupplyChainConfig describes a store drained by customers and restocked by ship.
type SupplyChainConfig struct {
	Horizon      int64   `yaml:"horizon"`
	InitialStock int64   `yaml:"initial_stock"`
	CustomerProb float64 `yaml:"customer_prob"`
	MinPurchase  int64   `yaml:"min_purchase"`
	MaxPurchase  int64   `yaml:"max_purchase"`
	ShipCapacity int64   `yaml:"ship_capacity"`
	MinVoyage    int64   `yaml:"min_voyage"`
	MaxVoyage    int64   `yaml:"max_voyage"`
	UnloadTicks  int64   `yaml:"unload_ticks"`

	// DepartureSchedule is an optional cron spec; when set the ship only
	// leaves port at its occurrences, with Epoch as tick 0 and TickDuration
	// per tick.
	DepartureSchedule string        `yaml:"departure_schedule"`
	Epoch             time.Time     `yaml:"epoch"`
	TickDuration      time.Duration `yaml:"tick_duration"`
}

// TankRefillConfig describes a tank refilled whenever it is empty.
type TankRefillConfig struct {
	Horizon     int64 `yaml:"horizon"`
	RefillTicks int64 `yaml:"refill_ticks"`
	CheckTicks  int64 `yaml:"check_ticks"`
}

// PlantConfig describes two tanks sharing a mixing machine and a dosing pump.
type PlantConfig struct {
	Horizon        int64    `yaml:"horizon"`
	Tanks          []string `yaml:"tanks"`
	MachineUnits   int      `yaml:"machine_units"`
	PumpUnits      int      `yaml:"pump_units"`
	DosingTicks    int64    `yaml:"dosing_ticks"`
	InductionTicks int64    `yaml:"induction_ticks"`
	DispersTicks   int64    `yaml:"dispersing_ticks"`
	TransferTicks  int64    `yaml:"transfer_ticks"`
}

// BankConfig describes a bank counter with scripted and generated customers.
type BankConfig struct {
	Horizon   int64              `yaml:"horizon"`
	Counters  int                `yaml:"counters"`
	Customers []CustomerConfig   `yaml:"customers"`
	Generated GeneratedCustomers `yaml:"generated"`
}

// CustomerConfig is one scripted bank customer. Patience 0 waits forever.
type CustomerConfig struct {
	Name     string `yaml:"name"`
	Arrival  int64  `yaml:"arrival"`
	Service  int64  `yaml:"service"`
	Patience int64  `yaml:"patience"`
}

// GeneratedCustomers adds Count random customers with exponential
// inter-arrival and service times and uniform patience in
// [MinPatience, MaxPatience]. MaxPatience 0 waits forever.
type GeneratedCustomers struct {
	Count            int     `yaml:"count"`
	MeanInterarrival float64 `yaml:"mean_interarrival"`
	MeanService      float64 `yaml:"mean_service"`
	MinPatience      int64   `yaml:"min_patience"`
	MaxPatience      int64   `yaml:"max_patience"`
}

// DefaultConfig returns the parameters of the reference models.
func DefaultConfig() Config {
	return Config{
		Basic:    BasicConfig{Delay: 1, Value: 42},
		Arrivals: ArrivalsConfig{Num: 20, ProbArrival: 0.05},
		SupplyChain: SupplyChainConfig{
			Horizon:      1000,
			InitialStock: 100,
			CustomerProb: 0.1,
			MinPurchase:  1,
			MaxPurchase:  2,
			ShipCapacity: 15,
			MinVoyage:    7,
			MaxVoyage:    12,
			UnloadTicks:  1,
			Epoch:        time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			TickDuration: 24 * time.Hour,
		},
		TankRefill: TankRefillConfig{Horizon: 20, RefillTicks: 10, CheckTicks: 1},
		Plant: PlantConfig{
			Horizon:        120,
			Tanks:          []string{"Tank1", "Tank2"},
			MachineUnits:   1,
			PumpUnits:      1,
			DosingTicks:    15,
			InductionTicks: 30,
			DispersTicks:   10,
			TransferTicks:  20,
		},
		Bank: BankConfig{
			Horizon:  20,
			Counters: 1,
			Customers: []CustomerConfig{
				{Name: "Customer 1", Service: 5},
				{Name: "Customer 2", Service: 3},
			},
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig with strict field checking.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading scenario config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML over DefaultConfig with strict field checking and
// validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing scenario config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	return errors.Join(
		c.Basic.Validate(),
		c.Arrivals.Validate(),
		c.SupplyChain.Validate(),
		c.TankRefill.Validate(),
		c.Plant.Validate(),
		c.Bank.Validate(),
	)
}

func (c BasicConfig) Validate() error {
	if c.Delay < 0 {
		return fmt.Errorf("basic.delay must be >= 0, got %d", c.Delay)
	}
	return nil
}

func (c ArrivalsConfig) Validate() error {
	if c.Num < 1 {
		return fmt.Errorf("arrivals.num must be >= 1, got %d", c.Num)
	}
	if c.ProbArrival <= 0 || c.ProbArrival > 1 {
		return fmt.Errorf("arrivals.prob_arrival must be in (0, 1], got %g", c.ProbArrival)
	}
	return nil
}

func (c SupplyChainConfig) Validate() error {
	var errs []error
	if c.Horizon < 1 {
		errs = append(errs, fmt.Errorf("supply_chain.horizon must be >= 1, got %d", c.Horizon))
	}
	if c.CustomerProb < 0 || c.CustomerProb > 1 {
		errs = append(errs, fmt.Errorf("supply_chain.customer_prob must be in [0, 1], got %g", c.CustomerProb))
	}
	if c.MinPurchase < 0 || c.MaxPurchase < c.MinPurchase {
		errs = append(errs, fmt.Errorf("supply_chain purchase range [%d, %d] is invalid", c.MinPurchase, c.MaxPurchase))
	}
	if c.MinVoyage < 0 || c.MaxVoyage < c.MinVoyage {
		errs = append(errs, fmt.Errorf("supply_chain voyage range [%d, %d] is invalid", c.MinVoyage, c.MaxVoyage))
	}
	if c.UnloadTicks < 0 {
		errs = append(errs, fmt.Errorf("supply_chain.unload_ticks must be >= 0, got %d", c.UnloadTicks))
	}
	if c.DepartureSchedule != "" && c.TickDuration <= 0 {
		errs = append(errs, fmt.Errorf("supply_chain.tick_duration must be positive with a departure schedule, got %s", c.TickDuration))
	}
	return errors.Join(errs...)
}

func (c TankRefillConfig) Validate() error {
	// The tank checks itself forever, so only a horizon ends the run.
	if c.Horizon < 1 {
		return fmt.Errorf("tank_refill.horizon must be >= 1, got %d", c.Horizon)
	}
	// A zero check interval would spin forever at one instant.
	if c.RefillTicks < 0 || c.CheckTicks < 1 {
		return fmt.Errorf("tank_refill needs refill_ticks >= 0 and check_ticks >= 1, got %d and %d", c.RefillTicks, c.CheckTicks)
	}
	return nil
}

func (c PlantConfig) Validate() error {
	var errs []error
	// Tanks cycle forever, so only a horizon ends the run.
	if c.Horizon < 1 {
		errs = append(errs, fmt.Errorf("plant.horizon must be >= 1, got %d", c.Horizon))
	}
	if len(c.Tanks) == 0 {
		errs = append(errs, errors.New("plant.tanks must name at least one tank"))
	}
	if c.MachineUnits < 1 || c.PumpUnits < 1 {
		errs = append(errs, fmt.Errorf("plant needs at least one machine and one pump, got %d and %d", c.MachineUnits, c.PumpUnits))
	}
	// A cycle with no duration would never let time advance.
	if c.DosingTicks < 0 || c.InductionTicks < 0 || c.DispersTicks < 0 || c.TransferTicks < 0 ||
		c.InductionTicks+c.DispersTicks+c.TransferTicks == 0 {
		errs = append(errs, errors.New("plant step durations must be >= 0 and a cycle must take time"))
	}
	return errors.Join(errs...)
}

func (c BankConfig) Validate() error {
	var errs []error
	if c.Horizon < 0 {
		errs = append(errs, fmt.Errorf("bank.horizon must be >= 0, got %d", c.Horizon))
	}
	if c.Counters < 1 {
		errs = append(errs, fmt.Errorf("bank.counters must be >= 1, got %d", c.Counters))
	}
	for i, cust := range c.Customers {
		if cust.Name == "" {
			errs = append(errs, fmt.Errorf("bank.customers[%d] has no name", i))
		}
		if cust.Arrival < 0 || cust.Service < 0 || cust.Patience < 0 {
			errs = append(errs, fmt.Errorf("bank.customers[%d] (%s) has a negative time", i, cust.Name))
		}
	}
	g := c.Generated
	if g.Count < 0 {
		errs = append(errs, fmt.Errorf("bank.generated.count must be >= 0, got %d", g.Count))
	}
	if g.Count > 0 && (g.MeanInterarrival <= 0 || g.MeanService <= 0) {
		errs = append(errs, errors.New("bank.generated means must be positive"))
	}
	if g.MinPatience < 0 || g.MaxPatience < g.MinPatience {
		errs = append(errs, fmt.Errorf("bank.generated patience range [%d, %d] is invalid", g.MinPatience, g.MaxPatience))
	}
	return errors.Join(errs...)
}
