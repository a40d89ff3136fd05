package cmd

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/schedule-sim/sim/experiment"
)

// validateCmd checks experiment files without running them
var validateCmd = &cobra.Command{
	Use:   "validate <experiment.yaml>...",
	Short: "Check experiment files for errors without running them",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := validateFiles(args, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// validateFiles loads and builds every file, reporting each one's status.
// Building catches generator parameters that only fail at construction.
func validateFiles(paths []string, stdout io.Writer) error {
	var errs *multierror.Error
	for _, path := range paths {
		e, err := experiment.Load(path)
		if err == nil {
			_, _, err = e.Build()
		}
		if err != nil {
			fmt.Fprintf(stdout, "FAIL %s\n", path)
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		fmt.Fprintf(stdout, "ok   %s\n", path)
	}
	return errs.ErrorOrNil()
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
