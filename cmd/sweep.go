package cmd

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/schedule-sim/sim"
	"github.com/inference-sim/schedule-sim/sim/experiment"
)

var (
	sweepSeeds    []int64 // Seeds to run every experiment with
	sweepParallel int     // Concurrent runs
)

// sweepCmd runs every experiment file under every seed concurrently
var sweepCmd = &cobra.Command{
	Use:   "sweep <experiment.yaml>...",
	Short: "Run experiment files across several seeds in parallel",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var exps []*experiment.Experiment
		for _, path := range args {
			e, err := experiment.Load(path)
			if err != nil {
				logrus.Fatalf("%s: %v", path, err)
			}
			applyOverrides(cmd, e)
			exps = append(exps, e)
		}
		if err := sweep(cmd.Context(), exps, sweepSeeds, sweepParallel, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// sweep runs each experiment once per seed with at most parallel runs in
// flight. Every run owns its Architecture, so runs share no state. Rows are
// written in experiment then seed order once all runs have finished.
func sweep(ctx context.Context, exps []*experiment.Experiment, seeds []int64, parallel int, stdout io.Writer) (err error) {
	if len(seeds) == 0 {
		return fmt.Errorf("sweep needs at least one seed")
	}
	results := make([]*sim.Result, len(exps)*len(seeds))
	opts := make([]sim.OutputOptions, len(results))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallel, 1))
	for i, base := range exps {
		for j, s := range seeds {
			slot := i*len(seeds) + j
			e := *base
			e.Seed = s
			opts[slot] = e.OutputOptions()
			g.Go(func() error {
				_, res, err := simulate(gctx, &e)
				if err != nil {
					return fmt.Errorf("%s seed %d: %w", e.Name, s, err)
				}
				results[slot] = res
				logrus.Infof("sweep: %s seed %d finished at step %d", e.Name, s, res.Steps)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
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
	for i, res := range results {
		if err := out.Write(ctx, res, opts[i]); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	sweepCmd.Flags().Int64SliceVar(&sweepSeeds, "seeds", []int64{1, 2, 3}, "Comma-separated seeds; each experiment runs once per seed")
	sweepCmd.Flags().IntVar(&sweepParallel, "parallel", runtime.GOMAXPROCS(0), "Maximum concurrent runs")
	addReportFlags(sweepCmd)
	rootCmd.AddCommand(sweepCmd)
}
