package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/schedule-sim/sim"
	"github.com/inference-sim/schedule-sim/sim/experiment"
)

// compareCmd runs one experiment once per policy, swapping the root scheduler
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run an experiment with every scheduling policy at the root",
	Long: "Runs --config or --preset once per policy, replacing the root scheduler's policy, " +
		"and prints one row per policy. Nested schedulers keep their configured policies.",
	Run: func(cmd *cobra.Command, args []string) {
		e, err := selectExperiment(cmd, sim.PolicyRandom)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := compare(cmd.Context(), e, sim.PolicyNames(), cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// compare runs base once per policy and writes the rows in policy order.
// Each run is named after its policy.
func compare(ctx context.Context, base *experiment.Experiment, policies []string, stdout io.Writer) (err error) {
	if base.Tree.Scheduler == "" {
		return fmt.Errorf("experiment %q: compare needs a scheduler at the root", base.Name)
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

	for _, policy := range policies {
		e := *base
		e.Name = policy
		e.Tree.Scheduler = policy
		if policy != sim.PolicyShopping {
			e.Tree.ShoppingOptions = 0
		}
		_, res, err := simulate(ctx, &e)
		if err != nil {
			return fmt.Errorf("policy %s: %w", policy, err)
		}
		if err := out.Write(ctx, res, e.OutputOptions()); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	compareCmd.Flags().StringVar(&configPath, "config", "", "Experiment YAML file")
	compareCmd.Flags().StringVar(&presetName, "preset", experiment.PresetFlat, "Built-in preset used when --config is not set")
	addReportFlags(compareCmd)
	rootCmd.AddCommand(compareCmd)
}
