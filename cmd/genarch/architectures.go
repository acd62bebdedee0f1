package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/genarch/internal/architecture"
	"github.com/inodb/genarch/internal/environment"
	"github.com/inodb/genarch/internal/sampling"
)

// Defaults reproduce the two-gene overlap experiment: a 16-site genome with
// two 8-site genes, the second gene sliding from full overlap to none.
const (
	defaultGenomeLength = 16
	defaultGeneLength   = 8
)

var defaultStarts = [][]int{
	{0, 0},
	{0, 2},
	{0, 4},
	{0, 5},
	{0, 6},
	{0, 7},
	{0, 8},
}

// archEntry is one architecture declared under "architectures" in the config.
type archEntry struct {
	Label      string `mapstructure:"label"`
	GeneStarts []int  `mapstructure:"gene_starts"`
}

// addLayoutFlags registers the flags that describe candidate architectures.
func addLayoutFlags(cmd *cobra.Command) {
	cmd.Flags().Int("genome-length", defaultGenomeLength, "Number of genome sites")
	cmd.Flags().Int("gene-length", defaultGeneLength, "Number of positions per gene")
	cmd.Flags().StringArray("starts", nil, "Gene start sites, e.g. 0,2 (repeatable; default: config or built-in set)")
}

// bindFlags binds the named flags of cmd to viper keys with dashes replaced
// by underscores. Binding happens when the command runs so commands sharing
// a flag name do not steal each other's bindings.
func bindFlags(cmd *cobra.Command, names ...string) error {
	for _, name := range names {
		key := strings.ReplaceAll(name, "-", "_")
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// resolveCandidates returns the architectures to work on: --starts flags
// first, then the config's architectures list, then the built-in set.
func resolveCandidates(cmd *cobra.Command) ([]sampling.Candidate, error) {
	if err := bindFlags(cmd, "genome-length", "gene-length"); err != nil {
		return nil, err
	}
	genomeLength := viper.GetInt("genome_length")
	geneLength := viper.GetInt("gene_length")

	var entries []archEntry
	starts, err := cmd.Flags().GetStringArray("starts")
	if err != nil {
		return nil, err
	}
	switch {
	case len(starts) > 0:
		for _, s := range starts {
			parsed, err := architecture.ParseStarts(s)
			if err != nil {
				return nil, &usageError{err: err}
			}
			entries = append(entries, archEntry{GeneStarts: parsed})
		}
	case viper.IsSet("architectures"):
		if err := viper.UnmarshalKey("architectures", &entries); err != nil {
			return nil, fmt.Errorf("read architectures from config: %w", err)
		}
	default:
		for _, s := range defaultStarts {
			entries = append(entries, archEntry{GeneStarts: s})
		}
	}

	candidates := make([]sampling.Candidate, 0, len(entries))
	for _, e := range entries {
		a, err := architecture.New(genomeLength, len(e.GeneStarts), geneLength, e.GeneStarts)
		if err != nil {
			return nil, &usageError{err: err}
		}
		label := e.Label
		if label == "" {
			label = a.Label()
		}
		candidates = append(candidates, sampling.Candidate{Label: label, Arch: a})
	}
	if len(candidates) == 0 {
		return nil, usagef("no architectures to evaluate")
	}
	return candidates, nil
}

// resolveAlphabet parses the alphabet key, e.g. "0,1,2".
func resolveAlphabet() (environment.Alphabet, error) {
	raw := viper.GetString("alphabet")
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' '
	})
	values := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, usagef("%w: %q", environment.ErrInvalidAlphabet, raw)
		}
		values = append(values, v)
	}
	alpha, err := environment.NewAlphabet(values)
	if err != nil {
		return nil, &usageError{err: err}
	}
	return alpha, nil
}
