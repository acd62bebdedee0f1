package fitness

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/genarch/internal/architecture"
)

func mustArch(t *testing.T, genomeLength, geneCount, geneLength int, starts ...int) *architecture.Architecture {
	t.Helper()
	a, err := architecture.New(genomeLength, geneCount, geneLength, starts)
	require.NoError(t, err)
	return a
}

func randomTargets(rng *rand.Rand, genes, length, alphabetSize int) Targets {
	t := make(Targets, genes)
	for g := range t {
		t[g] = make([]int, length)
		for i := range t[g] {
			t[g][i] = rng.IntN(alphabetSize)
		}
	}
	return t
}

func TestExpectedOptimalFitness_NonOverlapping(t *testing.T) {
	a := mustArch(t, 4, 2, 2, 0, 2)
	assert.Equal(t, 4.0, ExpectedOptimalFitness(a))
}

func TestExpectedOptimalFitness_FullOverlap(t *testing.T) {
	a := mustArch(t, 2, 2, 2, 0, 1)
	assert.Equal(t, 3.0, ExpectedOptimalFitness(a))
}

func TestExpectedOptimalFitness_PartialOverlap(t *testing.T) {
	// Genome 16, two genes of 8 offset by 4: sites 4..7 are shared.
	a := mustArch(t, 16, 2, 8, 0, 4)
	assert.Equal(t, 16.0-0.5*4, ExpectedOptimalFitness(a))

	// Three genes on the same site range: each site loses a full point.
	b := mustArch(t, 8, 3, 4, 0, 0, 0)
	assert.Equal(t, 12.0-4*1.0, ExpectedOptimalFitness(b))
}

func TestOptimalFitness_NonOverlapping(t *testing.T) {
	a := mustArch(t, 4, 2, 2, 0, 2)

	opt, err := OptimalFitness(a, Targets{{0, 1}, {1, 0}})
	require.NoError(t, err)

	assert.Equal(t, 4, opt.Fitness)
	assert.Equal(t, []int{0, 1, 1, 0}, opt.SiteValues)
}

func TestOptimalFitness_TieBreaksToSmallestValue(t *testing.T) {
	a := mustArch(t, 2, 2, 2, 0, 1)

	opt, err := OptimalFitness(a, Targets{{0, 0}, {1, 1}})
	require.NoError(t, err)

	assert.Equal(t, 2, opt.Fitness)
	assert.Equal(t, []int{0, 0}, opt.SiteValues)
}

func TestOptimalFitness_TieBreakIgnoresVoteOrder(t *testing.T) {
	// Same conflict with the genes swapped: the larger value votes first.
	a := mustArch(t, 2, 2, 2, 0, 1)

	opt, err := OptimalFitness(a, Targets{{1, 1}, {0, 0}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, opt.SiteValues)

	// Larger alphabet: 7 and 3 tie, 3 wins.
	b := mustArch(t, 1, 4, 1, 0, 0, 0, 0)
	opt, err = OptimalFitness(b, Targets{{7}, {3}, {7}, {3}})
	require.NoError(t, err)
	assert.Equal(t, []int{3}, opt.SiteValues)
	assert.Equal(t, 2, opt.Fitness)
}

func TestOptimalFitness_MajorityWins(t *testing.T) {
	a := mustArch(t, 3, 3, 3, 0, 0, 0)

	opt, err := OptimalFitness(a, Targets{{1, 0, 2}, {1, 1, 2}, {0, 1, 0}})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 1, 2}, opt.SiteValues)
	assert.Equal(t, 2+2+2, opt.Fitness)
}

func TestOptimalFitness_NonCodingSitesUnset(t *testing.T) {
	a := mustArch(t, 6, 1, 3, 2)

	opt, err := OptimalFitness(a, Targets{{1, 0, 1}})
	require.NoError(t, err)

	assert.Equal(t, []int{Unset, Unset, 1, 0, 1, Unset}, opt.SiteValues)
	assert.Equal(t, 3, opt.Fitness)
}

func TestOptimalFitness_ShapeMismatch(t *testing.T) {
	a := mustArch(t, 4, 2, 2, 0, 2)

	_, err := OptimalFitness(a, Targets{{0, 1}})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = OptimalFitness(a, Targets{{0, 1}, {1}})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = OptimalFitness(a, nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestOptimalFitness_NegativeTargetRejected(t *testing.T) {
	a := mustArch(t, 2, 2, 2, 0, 1)
	targets := Targets{{-1, 5}, {5, -1}}

	_, err := OptimalFitness(a, targets)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = Evaluate(a, []int{5, 5}, targets)
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestOptimalFitness_Idempotent(t *testing.T) {
	a := mustArch(t, 16, 4, 8, 0, 3, 5, 12)
	rng := rand.New(rand.NewPCG(1, 2))
	targets := randomTargets(rng, 4, 8, 3)
	before := targets.Clone()

	first, err := OptimalFitness(a, targets)
	require.NoError(t, err)
	second, err := OptimalFitness(a, targets)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, targets, "targets must not be modified")
}

func TestOptimalFitness_Bounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	layouts := [][]int{{0, 0}, {0, 2}, {0, 5}, {0, 8}, {3, 14}}

	for _, starts := range layouts {
		a := mustArch(t, 16, 2, 8, starts...)
		for range 50 {
			targets := randomTargets(rng, 2, 8, 2)
			opt, err := OptimalFitness(a, targets)
			require.NoError(t, err)

			assert.LessOrEqual(t, opt.Fitness, a.MaxPossible())
			// Each coding site satisfies at least one vote.
			assert.GreaterOrEqual(t, opt.Fitness, a.NumCodingSites())

			got, err := Evaluate(a, opt.SiteValues, targets)
			require.NoError(t, err)
			assert.Equal(t, opt.Fitness, got)
		}
	}
}

func TestOptimalFitness_NoOverlapAlwaysMax(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	a := mustArch(t, 16, 2, 8, 0, 8)
	for range 100 {
		opt, err := OptimalFitness(a, randomTargets(rng, 2, 8, 4))
		require.NoError(t, err)
		assert.Equal(t, a.MaxPossible(), opt.Fitness)
	}
}

func TestOptimalFitness_BeatsAnyGenome(t *testing.T) {
	// Exhaustive check on a small layout: no binary genome does better.
	rng := rand.New(rand.NewPCG(9, 9))
	a := mustArch(t, 5, 3, 3, 0, 1, 3)

	for range 20 {
		targets := randomTargets(rng, 3, 3, 2)
		opt, err := OptimalFitness(a, targets)
		require.NoError(t, err)

		for mask := 0; mask < 1<<5; mask++ {
			genome := make([]int, 5)
			for s := range genome {
				genome[s] = (mask >> s) & 1
			}
			score, err := Evaluate(a, genome, targets)
			require.NoError(t, err)
			assert.LessOrEqual(t, score, opt.Fitness)
		}
	}
}

func TestEvaluate(t *testing.T) {
	a := mustArch(t, 4, 2, 2, 0, 1)
	targets := Targets{{1, 1}, {0, 1}}

	// Gene 0 covers sites 0,1; gene 1 covers sites 1,2.
	score, err := Evaluate(a, []int{1, 1, 1, 0}, targets)
	require.NoError(t, err)
	assert.Equal(t, 3, score)

	_, err = Evaluate(a, []int{1, 1, 1}, targets)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = Evaluate(a, []int{1, 1, 1, 1}, Targets{{1, 1}})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestTargets_ValuesAndShape(t *testing.T) {
	targets := Targets{{2, 0, 2}, {5, 0, 0}}
	assert.Equal(t, []int{0, 2, 5}, targets.Values())

	genes, length := targets.Shape()
	assert.Equal(t, 2, genes)
	assert.Equal(t, 3, length)

	genes, length = Targets(nil).Shape()
	assert.Zero(t, genes)
	assert.Zero(t, length)
}

func TestTargets_CloneIsDeep(t *testing.T) {
	targets := Targets{{1, 0}, {0, 1}}
	c := targets.Clone()
	c[0][0] = 9
	assert.Equal(t, 1, targets[0][0])
}
