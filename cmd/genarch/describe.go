package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/genarch/internal/architecture"
	"github.com/inodb/genarch/internal/environment"
	"github.com/inodb/genarch/internal/fitness"
	"github.com/inodb/genarch/internal/output"
)

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Show gene positions, site occupancy and expected optimal fitness",
		Example: `  genarch describe                                  # built-in two-gene set
  genarch describe --starts 0,2
  genarch describe --genome-length 12 --gene-length 4 --starts 0,2,4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates, err := resolveCandidates(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, c := range candidates {
				if i > 0 {
					fmt.Fprintln(out)
				}
				if c.Label != c.Arch.Label() {
					fmt.Fprintf(out, "# %s\n", c.Label)
				}
				if err := output.WriteArchitecture(out, c.Arch); err != nil {
					return err
				}
			}
			return nil
		},
	}
	addLayoutFlags(cmd)
	return cmd
}

func newOptimumCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimum",
		Short: "Compute the optimal genome for one environment",
		Long: `Compute the genome that satisfies the most gene-position targets.

Targets are read from --targets, a file holding a line like
"[ 01101100 11110000 ]" with one token per gene, each written from the last
gene position to the first. Without --targets, environment --env of the
seeded random sequence used by sample is drawn instead.`,
		Example: `  genarch optimum --starts 0,4 --targets env.txt
  genarch optimum --starts 0,4 --seed 7 --env 12`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, "seed", "alphabet"); err != nil {
				return err
			}
			candidates, err := resolveCandidates(cmd)
			if err != nil {
				return err
			}
			targetsPath, _ := cmd.Flags().GetString("targets")
			envIndex, _ := cmd.Flags().GetInt("env")

			out := cmd.OutOrStdout()
			for i, c := range candidates {
				targets, err := loadOrDrawTargets(c.Arch, targetsPath, envIndex)
				if err != nil {
					return err
				}
				opt, err := fitness.OptimalFitness(c.Arch, targets)
				if err != nil {
					return fmt.Errorf("optimum %s: %w", c.Label, err)
				}

				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "Targets:\t%s\n", environment.FormatTargets(targets))
				if err := output.WriteOptimum(out, c.Arch, opt); err != nil {
					return err
				}
			}
			return nil
		},
	}
	addLayoutFlags(cmd)
	addEnvironmentFlags(cmd)
	return cmd
}

// addEnvironmentFlags registers the flags selecting a single environment.
func addEnvironmentFlags(cmd *cobra.Command) {
	cmd.Flags().String("targets", "", "Targets file (default: draw a random environment)")
	cmd.Flags().Uint64("seed", 1, "Random seed for drawn environments")
	cmd.Flags().Int("env", 0, "Index of the drawn environment")
	cmd.Flags().String("alphabet", "0,1", "Site values for drawn environments")
}

// loadOrDrawTargets reads targets shaped for a from path, or draws
// environment envIndex from the seeded source when path is empty.
func loadOrDrawTargets(a *architecture.Architecture, path string, envIndex int) (fitness.Targets, error) {
	if path != "" {
		return environment.LoadTargets(path, a.GeneCount(), a.GeneLength())
	}
	if envIndex < 0 {
		return nil, usagef("environment index must not be negative, got %d", envIndex)
	}
	alpha, err := resolveAlphabet()
	if err != nil {
		return nil, err
	}
	src := environment.NewSource(viper.GetUint64("seed"), a.GeneCount(), a.GeneLength(), alpha)
	return src.Environment(envIndex), nil
}
