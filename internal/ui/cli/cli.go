package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const versionString = "1.0.0"

type globalOptions struct {
	configPath string
	verbose    bool
	version    bool
}

// usageError marks failures caused by the invocation itself; they exit 2.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

func isUsageError(err error) bool {
	var u usageError
	if errors.As(err, &u) {
		return true
	}
	// cobra reports unknown subcommands before any hook runs.
	return strings.HasPrefix(err.Error(), "unknown command") ||
		strings.HasPrefix(err.Error(), "unknown flag") ||
		strings.HasPrefix(err.Error(), "unknown shorthand flag")
}

// exactArgs wraps cobra.ExactArgs so arity problems count as usage errors.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}

func newRootCmd(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:   "msindex",
		Short: "Metabolic Support Index between genome-scale metabolic models",
		Long: `msindex builds community metabolic networks from SBML models and scores
how much one organism relieves the stuck reactions of another.

  msindex pairwise --seeds data/glc.txt
  msindex higher-order --clusters individual_clusters
  msindex subgraph orgA orgB`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.opts.version {
				fmt.Fprintf(cmd.OutOrStdout(), "msindex v%s\n", versionString)
				return nil
			}
			return cmd.Help()
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&rt.opts.configPath, "config", "", "Path to config file (default data/config/msindex.toml, then ./msindex.toml)")
	flags.BoolVar(&rt.opts.verbose, "verbose", false, "Enable verbose logging")
	root.Flags().BoolVar(&rt.opts.version, "version", false, "Print version and exit")

	root.AddCommand(
		newPairwiseCmd(rt),
		newHigherOrderCmd(rt),
		newStatsCmd(rt),
		newMediumCmd(rt),
		newRolesCmd(rt, "acceptors"),
		newRolesCmd(rt, "donors"),
		newExchangeCmd(rt),
		newSubgraphCmd(rt),
		newHistoryCmd(rt),
		newWatchCmd(rt),
	)
	return root
}
