package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/PSum/simulation-python-test/sim"
	"github.com/PSum/simulation-python-test/sim/metrics"
	"github.com/PSum/simulation-python-test/sim/scenario"
	"github.com/PSum/simulation-python-test/sim/trace"
)

var (
	// CLI flags shared by run and replicate
	seed       int64  // Seed for the scenario's random streams
	until      int64  // Time bound overriding the scenario default (0 keeps it)
	logLevel   string // Log verbosity level
	configPath string // Optional scenario YAML config

	// CLI flags for run
	traceLevel  string // Trace verbosity: none, intervals, dispatch
	traceOut    string // Trace output file; empty skips writing
	traceFormat string // csv or json
	showMetrics bool   // Print kernel metrics after the run

	// CLI flags for replicate
	replications int // Number of independent runs
	parallel     int // Maximum concurrent runs
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "simkit",
	Short: "Process-based discrete-event simulation kernel and example models",
}

// setLogLevel applies the --log flag to the global logger.
func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// runCmd executes one scenario using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run <scenario>",
	Short: "Run a scenario once",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s (valid: none, intervals, dispatch)", traceLevel)
		}
		if traceFormat != "csv" && traceFormat != "json" {
			logrus.Fatalf("Invalid trace format: %s (valid: csv, json)", traceFormat)
		}

		logrus.Infof("Starting scenario %s with seed=%d", args[0], seed)
		if err := runScenario(cmd.OutOrStdout(), args[0]); err != nil {
			logrus.Fatalf("Scenario %s failed: %v", args[0], err)
		}
		logrus.Info("Simulation complete.")
	},
}

// runScenario runs the named scenario with the current flag values and
// writes its lines, results, optional metrics and trace.
func runScenario(w io.Writer, name string) error {
	rec := trace.NewRecorder(name, seed, trace.TraceLevel(traceLevel))
	opts := scenario.Options{
		Seed:       seed,
		Until:      until,
		ConfigPath: configPath,
		Logger:     logrus.StandardLogger(),
		Recorder:   rec,
	}

	var reg *prometheus.Registry
	if showMetrics {
		reg = prometheus.NewRegistry()
		collector, err := metrics.NewCollector(reg)
		if err != nil {
			return err
		}
		opts.Observers = []sim.Observer{collector}
	}

	res, err := scenario.Run(name, opts)
	if err != nil {
		return err
	}
	if err := printResult(w, res); err != nil {
		return err
	}
	if reg != nil {
		fmt.Fprintln(w, "=== Kernel Metrics ===")
		if err := metrics.Dump(reg, w); err != nil {
			return err
		}
	}
	if traceOut != "" {
		if err := writeTrace(rec, traceOut, traceFormat); err != nil {
			return err
		}
		logrus.Infof("Trace written to %s", traceOut)
	}
	return nil
}

// resultSummary is the JSON block printed after a run.
type resultSummary struct {
	Scenario string             `json:"scenario"`
	RunID    string             `json:"run_id"`
	Seed     int64              `json:"seed"`
	Now      int64              `json:"sim_ended_time"`
	Stats    map[string]float64 `json:"stats"`
}

func printResult(w io.Writer, res *scenario.Result) error {
	for _, line := range res.Lines {
		fmt.Fprintln(w, line)
	}
	data, err := json.MarshalIndent(resultSummary{
		Scenario: res.Scenario,
		RunID:    trace.RunID(res.Scenario, res.Seed).String(),
		Seed:     res.Seed,
		Now:      res.Now,
		Stats:    res.Stats,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	fmt.Fprintln(w, "=== Simulation Results ===")
	fmt.Fprintln(w, string(data))
	return nil
}

func writeTrace(rec *trace.Recorder, path, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trace file: %w", err)
	}
	defer f.Close()
	if format == "json" {
		err = rec.WriteJSON(f)
	} else {
		err = rec.WriteCSV(f)
	}
	if err != nil {
		return err
	}
	return f.Close()
}

// listCmd prints the registered scenarios
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available scenarios",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		listScenarios(cmd.OutOrStdout())
	},
}

func listScenarios(w io.Writer) {
	for _, name := range scenario.Names() {
		s, _ := scenario.Lookup(name)
		fmt.Fprintf(w, "%-14s %s\n", name, s.Description)
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	for _, c := range []*cobra.Command{runCmd, replicateCmd} {
		c.Flags().Int64Var(&seed, "seed", 42, "Seed for the scenario's random streams")
		c.Flags().Int64Var(&until, "until", 0, "Simulation time bound in ticks (0 uses the scenario default)")
		c.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
		c.Flags().StringVar(&configPath, "config", "", "Path to a scenario YAML config")
	}

	runCmd.Flags().StringVar(&traceLevel, "trace-level", "intervals", "Trace verbosity (none, intervals, dispatch)")
	runCmd.Flags().StringVar(&traceOut, "trace-out", "", "Write the trace to this file")
	runCmd.Flags().StringVar(&traceFormat, "trace-format", "csv", "Trace file format (csv, json)")
	runCmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print kernel metrics after the run")

	replicateCmd.Flags().IntVar(&replications, "replications", 10, "Number of independent replications")
	replicateCmd.Flags().IntVar(&parallel, "parallel", 4, "Maximum replications running concurrently")

	rootCmd.AddCommand(runCmd, listCmd, replicateCmd)
}
