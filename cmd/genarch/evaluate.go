package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/genarch/internal/fitness"
	"github.com/inodb/genarch/internal/genome"
	"github.com/inodb/genarch/internal/output"
)

func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate <genome-file>",
		Short: "Score genomes against an environment",
		Long: `Score each genome in a genome file against one environment and report
how far it falls short of the optimum for its own architecture.

Each genome line is "start,start,...,bits", the gene starts followed by
one digit per site written from the last site to the first.`,
		Example: `  genarch evaluate ancestors.txt --targets env.txt
  genarch evaluate - --gene-length 8 --seed 3 --env 0 < ancestors.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, "gene-length", "seed", "alphabet"); err != nil {
				return err
			}
			geneLength := viper.GetInt("gene_length")
			targetsPath, _ := cmd.Flags().GetString("targets")
			envIndex, _ := cmd.Flags().GetInt("env")

			var parser *genome.Parser
			if args[0] == "-" {
				parser = genome.NewParserFromReader(cmd.InOrStdin())
			} else {
				var err error
				if parser, err = genome.NewParser(args[0]); err != nil {
					return err
				}
			}
			defer parser.Close()

			w := output.NewEvaluationWriter(cmd.OutOrStdout())
			if err := w.WriteHeader(); err != nil {
				return fmt.Errorf("writing header: %w", err)
			}

			for {
				g, err := parser.Next()
				if err != nil {
					return err
				}
				if g == nil {
					break
				}

				arch, err := g.Architecture(geneLength)
				if err != nil {
					return fmt.Errorf("line %d: %w", parser.LineNumber(), err)
				}
				targets, err := loadOrDrawTargets(arch, targetsPath, envIndex)
				if err != nil {
					return err
				}
				score, err := fitness.Evaluate(arch, g.Values, targets)
				if err != nil {
					return fmt.Errorf("line %d: %w", parser.LineNumber(), err)
				}
				opt, err := fitness.OptimalFitness(arch, targets)
				if err != nil {
					return fmt.Errorf("line %d: %w", parser.LineNumber(), err)
				}

				if err := w.Write(output.Evaluation{
					Genome:  g.String(),
					Label:   arch.Label(),
					Fitness: score,
					Optimal: opt.Fitness,
					Max:     arch.MaxPossible(),
				}); err != nil {
					return fmt.Errorf("writing evaluation: %w", err)
				}
			}

			return w.Flush()
		},
	}
	cmd.Flags().Int("gene-length", defaultGeneLength, "Number of positions per gene")
	addEnvironmentFlags(cmd)
	return cmd
}
