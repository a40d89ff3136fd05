package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/schedule-sim/sim"
	"github.com/inference-sim/schedule-sim/sim/experiment"
	"github.com/inference-sim/schedule-sim/sim/sink"
	"github.com/inference-sim/schedule-sim/sim/trace"
)

var (
	logLevel string // Log verbosity level

	// experiment selection
	configPath string // Experiment YAML file
	presetName string // Built-in preset, used when no config file is given
	policyName string // Root scheduler policy for presets
	seed       int64  // Overrides the experiment seed when set
	maxSteps   int64  // Overrides the experiment horizon when set

	// reporting
	binCount        int    // Size bins for binned makespans
	noMakespan      bool   // Suppress the makespan column
	noUtilisation   bool   // Suppress the utilisation column
	printHeader     bool   // Print a header line before rows
	resultsDB       string // SQLite results database path
	metricsTextfile string // Prometheus textfile path
	snapshotOut     string // Final tree snapshot JSON path
	traceLevel      string // Dispatch trace level
	traceOut        string // Dispatch trace JSON path
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "schedule-sim",
	Short: "Step-synchronous simulator for hierarchical task scheduling",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyEnv(cmd.Flags()); err != nil {
			return err
		}
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)
		return nil
	},
	SilenceUsage: true,
}

// runCmd runs one experiment and reports its result row
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one experiment file or preset",
	Run: func(cmd *cobra.Command, args []string) {
		e, err := selectExperiment(cmd, policyName)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := runOne(cmd.Context(), e, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// selectExperiment loads --config or builds --preset with policy at its
// root, then applies the flag overrides the user set explicitly.
func selectExperiment(cmd *cobra.Command, policy string) (*experiment.Experiment, error) {
	var e *experiment.Experiment
	var err error
	if configPath != "" {
		e, err = experiment.Load(configPath)
	} else {
		e, err = experiment.Preset(presetName, policy, seed)
	}
	if err != nil {
		return nil, err
	}
	applyOverrides(cmd, e)
	return e, nil
}

func applyOverrides(cmd *cobra.Command, e *experiment.Experiment) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		logrus.Infof("overriding experiment seed %d with --seed %d", e.Seed, seed)
		e.Seed = seed
	}
	if flags.Changed("max-steps") {
		e.MaxSteps = maxSteps
	}
	out := e.OutputOptions()
	if flags.Changed("bins") {
		out.BinCount = binCount
	}
	if noMakespan {
		out.ReportMakespan = false
	}
	if noUtilisation {
		out.ReportUtilisation = false
	}
	e.Output = &out
}

// simulate builds and runs e with the trace level from the flags.
func simulate(ctx context.Context, e *experiment.Experiment) (*sim.Simulation, *sim.Result, error) {
	if !trace.IsValidTraceLevel(traceLevel) {
		return nil, nil, fmt.Errorf("invalid trace level %q; valid: none, consumers, dispatches", traceLevel)
	}
	arch, cfg, err := e.Build()
	if err != nil {
		return nil, nil, err
	}
	cfg.Trace = trace.TraceConfig{Level: trace.TraceLevel(traceLevel)}
	if traceOut != "" && !cfg.Trace.Enabled() {
		cfg.Trace.Level = trace.TraceLevelDispatches
	}
	s := sim.NewSimulation(arch, cfg)
	res, err := s.Run(ctx)
	if err != nil {
		return nil, nil, err
	}
	return s, res, nil
}

// runOne runs e and delivers the result to every configured sink, then
// writes the requested snapshot and trace files.
func runOne(ctx context.Context, e *experiment.Experiment, stdout io.Writer) (err error) {
	s, res, err := simulate(ctx, e)
	if err != nil {
		return err
	}
	out, err := openSinks(stdout)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	if err := out.Write(ctx, res, e.OutputOptions()); err != nil {
		return err
	}
	if snapshotOut != "" {
		if err := sink.WriteSnapshot(snapshotOut, s.Architecture().Snapshot(res.Steps)); err != nil {
			return err
		}
	}
	if traceOut != "" {
		return sink.WriteTrace(traceOut, s.Trace())
	}
	return nil
}

// openSinks returns the row writer plus any file-backed sinks the flags request.
func openSinks(stdout io.Writer) (sink.Sink, error) {
	sinks := []sink.Sink{sink.NewRowWriter(stdout, printHeader)}
	if resultsDB != "" {
		db, err := sink.OpenSQLite(resultsDB)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, db)
	}
	if metricsTextfile != "" {
		sinks = append(sinks, sink.NewTextfileSink(metricsTextfile))
	}
	return sink.Multi(sinks...), nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addReportFlags registers the flags shared by every command that runs experiments.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&seed, "seed", 42, "Seed for workloads and randomized policies (overrides the experiment seed)")
	cmd.Flags().Int64Var(&maxSteps, "max-steps", 0, "Abort a run after this many steps (0 = no limit)")
	cmd.Flags().IntVar(&binCount, "bins", 0, "Number of task size bins for binned makespans")
	cmd.Flags().BoolVar(&noMakespan, "no-makespan", false, "Do not report makespan")
	cmd.Flags().BoolVar(&noUtilisation, "no-utilisation", false, "Do not report utilisation")
	cmd.Flags().BoolVar(&printHeader, "header", false, "Print a header line before result rows")
	cmd.Flags().StringVar(&resultsDB, "results-db", "", "Append results to this SQLite database")
	cmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write Prometheus gauges to this textfile")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().StringVar(&configPath, "config", "", "Experiment YAML file")
	runCmd.Flags().StringVar(&presetName, "preset", experiment.PresetFlat, "Built-in preset used when --config is not set")
	runCmd.Flags().StringVar(&policyName, "policy", sim.PolicyMinMin, "Root scheduler policy for presets")
	runCmd.Flags().StringVar(&snapshotOut, "snapshot-out", "", "Write the final tree snapshot as JSON to this path")
	runCmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Dispatch trace level (none, consumers, dispatches)")
	runCmd.Flags().StringVar(&traceOut, "trace-out", "", "Write the dispatch trace as JSON to this path")
	addReportFlags(runCmd)

	rootCmd.AddCommand(runCmd)
}
