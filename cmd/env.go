package cmd

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix namespaces the environment variables that stand in for flags:
// --results-db can be supplied as SCHEDSIM_RESULTS_DB.
const envPrefix = "SCHEDSIM"

func envName(flag string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// applyEnv copies environment values onto flags the user did not set on
// the command line. Explicit flags always win.
func applyEnv(flags *pflag.FlagSet) error {
	v := viper.New()
	var errs *multierror.Error
	flags.VisitAll(func(f *pflag.Flag) {
		if err := v.BindEnv(f.Name, envName(f.Name)); err != nil {
			errs = multierror.Append(errs, err)
			return
		}
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := flags.Set(f.Name, v.GetString(f.Name)); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", envName(f.Name), err))
		}
	})
	return errs.ErrorOrNil()
}
