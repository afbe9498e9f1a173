// Package scenario contains ready-made models built on the sim kernel: a
// single timeout, Bernoulli customer arrivals, a store restocked by ship, a
// self-refilling tank, a two-tank process plant sharing equipment, and a bank
// counter with optionally impatient customers.
//
// Every scenario is deterministic for a given seed and configuration.
package scenario

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/PSum/simulation-python-test/sim"
	"github.com/PSum/simulation-python-test/sim/trace"
)

// ErrUnknownScenario is returned by Lookup and Run for unregistered names.
var ErrUnknownScenario = errors.New("unknown scenario")

// Scenario is a registered model.
type Scenario struct {
	Name        string
	Description string
	// horizon returns the default time bound; 0 runs until no events remain.
	horizon func(cfg Config) int64
	setup   func(r *runner) error
}

var registry = map[string]*Scenario{}

func register(s *Scenario) {
	if _, dup := registry[s.Name]; dup {
		panic(fmt.Sprintf("scenario %q registered twice", s.Name))
	}
	registry[s.Name] = s
}

// Names returns the registered scenario names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lookup returns the scenario registered under name.
func Lookup(name string) (*Scenario, error) {
	s, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (valid: %s)", ErrUnknownScenario, name, strings.Join(Names(), ", "))
	}
	return s, nil
}

// Options controls a single run.
type Options struct {
	Seed int64
	// Until overrides the scenario's default horizon when positive.
	Until int64
	// Config is used when non-nil; otherwise ConfigPath is loaded when set,
	// and DefaultConfig is used when both are empty.
	Config     *Config
	ConfigPath string
	Logger     *logrus.Logger
	// Recorder, when non-nil, receives intervals and observes the environment.
	Recorder  *trace.Recorder
	Observers []sim.Observer
}

// Result is the outcome of a run.
type Result struct {
	Scenario string
	Seed     int64
	// Now is the virtual time when the run stopped.
	Now int64
	// Lines are the human-readable log lines of the run in order.
	Lines []string
	// Stats holds scalar results, Series ordered ones.
	Stats     map[string]float64
	Series    map[string][]int64
	Intervals []trace.Interval
}

// Run executes the named scenario.
func Run(name string, opts Options) (*Result, error) {
	s, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return s.Run(opts)
}

// Run executes the scenario in a fresh environment, which is closed before
// returning so no process goroutines outlive the call.
func (s *Scenario) Run(opts Options) (*Result, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	envOpts := []sim.Option{sim.WithLogger(logger)}
	if opts.Recorder != nil {
		envOpts = append(envOpts, sim.WithObserver(opts.Recorder))
	}
	for _, o := range opts.Observers {
		envOpts = append(envOpts, sim.WithObserver(o))
	}
	env := sim.NewEnvironment(envOpts...)
	defer env.Close()

	r := &runner{
		env: env,
		cfg: cfg,
		rng: NewPartitionedRNG(NewSimulationKey(opts.Seed)),
		log: logger.WithFields(logrus.Fields{"scenario": s.Name, "seed": opts.Seed}),
		rec: opts.Recorder,
		res: &Result{
			Scenario: s.Name,
			Seed:     opts.Seed,
			Stats:    make(map[string]float64),
			Series:   make(map[string][]int64),
		},
	}
	if err := s.setup(r); err != nil {
		return nil, fmt.Errorf("setting up %s: %w", s.Name, err)
	}

	until := opts.Until
	if until <= 0 {
		until = s.horizon(cfg)
	}
	if until > 0 {
		err = env.RunUntil(until)
	} else {
		err = env.Run()
	}
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", s.Name, err)
	}
	if err := r.failures(); err != nil {
		return nil, fmt.Errorf("running %s: %w", s.Name, err)
	}
	r.res.Now = env.Now()
	if r.finish != nil {
		r.finish()
	}
	logger.Debugf("[tick %07d] Scenario %s finished with %d log lines", env.Now(), s.Name, len(r.res.Lines))
	return r.res, nil
}

func resolveConfig(opts Options) (Config, error) {
	switch {
	case opts.Config != nil:
		if err := opts.Config.Validate(); err != nil {
			return Config{}, err
		}
		return *opts.Config, nil
	case opts.ConfigPath != "":
		return LoadConfig(opts.ConfigPath)
	default:
		return DefaultConfig(), nil
	}
}

// runner carries the per-run state shared by a scenario's processes.
type runner struct {
	env    *sim.Environment
	cfg    Config
	rng    *PartitionedRNG
	log    *logrus.Entry
	rec    *trace.Recorder
	res    *Result
	finish func()
	procs  []*sim.Process
}

// spawn starts a top-level process whose failure fails the run.
func (r *runner) spawn(name string, fn sim.ProcessFunc) *sim.Process {
	p := r.env.Process(name, fn)
	r.procs = append(r.procs, p)
	return p
}

// failures collects the errors of failed top-level processes.
func (r *runner) failures() error {
	var errs []error
	for _, p := range r.procs {
		if p.State() == sim.StateFailed {
			errs = append(errs, fmt.Errorf("process %s: %w", p.Name(), p.Done().Err()))
		}
	}
	return errors.Join(errs...)
}

// printf appends a line to the result and logs it at info level.
func (r *runner) printf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	r.res.Lines = append(r.res.Lines, line)
	r.log.WithField("tick", r.env.Now()).Info(line)
}

// record keeps a busy interval in the result and the recorder.
func (r *runner) record(resource, task, subject string, start, finish int64) {
	r.res.Intervals = append(r.res.Intervals, trace.Interval{
		Resource: resource,
		Task:     task,
		Subject:  subject,
		Start:    start,
		Finish:   finish,
	})
	r.rec.Record(resource, task, subject, start, finish)
}
