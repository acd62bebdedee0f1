// Package fitness computes fitness optima for a genetic architecture.
//
// Each gene has a target vector saying which value it wants at each of its
// positions. Where genes overlap, a single genome site has to serve every
// gene that covers it, so demands conflict and the attainable fitness drops
// below the number of gene positions.
package fitness

import (
	"errors"
	"fmt"
	"sort"

	"github.com/inodb/genarch/internal/architecture"
)

// Unset marks a non-coding site in Optimum.SiteValues.
const Unset = -1

// ErrShapeMismatch is returned when targets or genomes do not match the
// architecture's gene count, gene length, or genome length.
var ErrShapeMismatch = errors.New("shape mismatch")

// ErrInvalidTarget is returned for negative target values, which would be
// indistinguishable from Unset.
var ErrInvalidTarget = errors.New("invalid target value")

// Targets holds one target vector per gene: Targets[g][i] is the value gene g
// wants at its i-th position.
type Targets [][]int

// Shape returns the number of genes and the length of the first target.
func (t Targets) Shape() (genes, length int) {
	if len(t) == 0 {
		return 0, 0
	}
	return len(t), len(t[0])
}

// Clone returns a deep copy.
func (t Targets) Clone() Targets {
	out := make(Targets, len(t))
	for i, row := range t {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// Values returns the distinct values used in t, ascending.
func (t Targets) Values() []int {
	seen := make(map[int]bool)
	var vals []int
	for _, row := range t {
		for _, v := range row {
			if !seen[v] {
				seen[v] = true
				vals = append(vals, v)
			}
		}
	}
	sort.Ints(vals)
	return vals
}

// Optimum is the best genome for one set of targets.
type Optimum struct {
	SiteValues []int // value per genome site; Unset for non-coding sites
	Fitness    int   // gene-position demands satisfied
}

// ExpectedOptimalFitness estimates the optimal fitness averaged over random
// targets from overlap structure alone: every gene position counts once,
// less half a point for each extra gene sharing a site.
//
// The penalty is exact for sites without overlap and for two genes sharing a
// site under a uniform two-value alphabet. With three or more genes per site,
// or larger alphabets, it is only an approximation.
func ExpectedOptimalFitness(a *architecture.Architecture) float64 {
	penalty := 0.0
	for _, site := range a.CodingSites() {
		penalty += 0.5 * float64(a.OccupantCount(site)-1)
	}
	return float64(a.MaxPossible()) - penalty
}

// OptimalFitness finds the genome that satisfies the most gene-position
// demands for targets. Each coding site takes the value most genes covering it
// vote for, with ties going to the smallest value. Sites are independent, so
// the per-site choice is globally optimal.
func OptimalFitness(a *architecture.Architecture, targets Targets) (Optimum, error) {
	if err := checkTargets(a, targets); err != nil {
		return Optimum{}, err
	}

	alphabet := targets.Values()
	votes := make([]int, len(alphabet))

	opt := Optimum{SiteValues: make([]int, a.GenomeLength())}
	for site := range opt.SiteValues {
		opt.SiteValues[site] = Unset
	}

	for _, site := range a.CodingSites() {
		clear(votes)
		for _, occ := range a.OccupancyDetail(site) {
			votes[rank(alphabet, targets[occ.GeneID][occ.GeneIndex])]++
		}

		best := 0
		for r := 1; r < len(votes); r++ {
			if votes[r] > votes[best] {
				best = r
			}
		}
		opt.SiteValues[site] = alphabet[best]
		opt.Fitness += votes[best]
	}

	return opt, nil
}

// Evaluate returns how many gene-position demands genome satisfies. Demands
// are counted the way OptimalFitness counts votes: once per gene per site, so
// Evaluate(a, opt.SiteValues, targets) == opt.Fitness.
func Evaluate(a *architecture.Architecture, genome []int, targets Targets) (int, error) {
	if len(genome) != a.GenomeLength() {
		return 0, fmt.Errorf("%w: genome has %d sites, architecture has %d",
			ErrShapeMismatch, len(genome), a.GenomeLength())
	}
	if err := checkTargets(a, targets); err != nil {
		return 0, err
	}

	score := 0
	for _, site := range a.CodingSites() {
		for _, occ := range a.OccupancyDetail(site) {
			if genome[site] == targets[occ.GeneID][occ.GeneIndex] {
				score++
			}
		}
	}
	return score, nil
}

// rank returns the index of v in the ascending alphabet.
func rank(alphabet []int, v int) int {
	return sort.SearchInts(alphabet, v)
}

func checkTargets(a *architecture.Architecture, targets Targets) error {
	if len(targets) != a.GeneCount() {
		return fmt.Errorf("%w: %d target vectors for %d genes",
			ErrShapeMismatch, len(targets), a.GeneCount())
	}
	for g, row := range targets {
		if len(row) != a.GeneLength() {
			return fmt.Errorf("%w: target %d has length %d, genes have length %d",
				ErrShapeMismatch, g, len(row), a.GeneLength())
		}
		for i, v := range row {
			if v < 0 {
				return fmt.Errorf("%w: target %d position %d is %d", ErrInvalidTarget, g, i, v)
			}
		}
	}
	return nil
}
