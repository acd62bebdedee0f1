// Package environment draws target vectors ("environments") for fitness
// evaluation and applies environmental change to them.
package environment

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/inodb/genarch/internal/fitness"
)

// ErrInvalidAlphabet is returned for empty alphabets or negative values.
var ErrInvalidAlphabet = errors.New("invalid alphabet")

// Alphabet is an ascending list of distinct, non-negative site values.
type Alphabet []int

// Binary is the two-valued alphabet {0, 1}.
var Binary = Alphabet{0, 1}

// NewAlphabet sorts and deduplicates values.
func NewAlphabet(values []int) (Alphabet, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no values", ErrInvalidAlphabet)
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	if sorted[0] < 0 {
		return nil, fmt.Errorf("%w: negative value %d", ErrInvalidAlphabet, sorted[0])
	}

	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return Alphabet(out), nil
}

// Contains reports whether v is in the alphabet.
func (a Alphabet) Contains(v int) bool {
	i := sort.SearchInts(a, v)
	return i < len(a) && a[i] == v
}

// Generate draws geneCount target vectors of geneLength values, each value
// independent and uniform over alpha.
func Generate(rng *rand.Rand, geneCount, geneLength int, alpha Alphabet) fitness.Targets {
	targets := make(fitness.Targets, geneCount)
	for g := range targets {
		row := make([]int, geneLength)
		for i := range row {
			row[i] = alpha[rng.IntN(len(alpha))]
		}
		targets[g] = row
	}
	return targets
}

// MutateValues returns a copy of targets with count randomly chosen
// (gene, position) values replaced by a different alphabet value. For the
// binary alphabet this is a bit flip. Positions may be picked more than once.
func MutateValues(rng *rand.Rand, targets fitness.Targets, count int, alpha Alphabet) fitness.Targets {
	out := targets.Clone()
	if len(out) == 0 || len(alpha) < 2 {
		return out
	}
	for range count {
		row := out[rng.IntN(len(out))]
		if len(row) == 0 {
			continue
		}
		i := rng.IntN(len(row))
		// Draw uniformly from the alphabet minus the current value.
		k := rng.IntN(len(alpha) - 1)
		if alpha[k] >= row[i] {
			k++
		}
		row[i] = alpha[k]
	}
	return out
}

// RandomizeTargets returns a copy of targets with count distinct gene targets
// redrawn from scratch. count is capped at the number of genes.
func RandomizeTargets(rng *rand.Rand, targets fitness.Targets, count int, alpha Alphabet) fitness.Targets {
	out := targets.Clone()
	count = max(0, min(count, len(out)))
	for _, g := range rng.Perm(len(out))[:count] {
		for i := range out[g] {
			out[g][i] = alpha[rng.IntN(len(alpha))]
		}
	}
	return out
}
