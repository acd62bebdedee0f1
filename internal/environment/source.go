package environment

import (
	"math/rand/v2"

	"github.com/inodb/genarch/internal/fitness"
)

// Stream tags keep the draws for an environment and its change independent.
const (
	streamTargets uint64 = iota
	streamChange
)

// Source produces a reproducible sequence of environments. Environment i is
// drawn from its own PCG stream keyed by (seed, i), so the result does not
// depend on how many workers evaluate environments or in which order.
type Source struct {
	seed       uint64
	geneCount  int
	geneLength int
	alphabet   Alphabet
}

// NewSource creates a source of geneCount x geneLength environments over alpha.
func NewSource(seed uint64, geneCount, geneLength int, alpha Alphabet) *Source {
	return &Source{
		seed:       seed,
		geneCount:  geneCount,
		geneLength: geneLength,
		alphabet:   alpha,
	}
}

// Alphabet returns the source's alphabet.
func (s *Source) Alphabet() Alphabet { return s.alphabet }

// Environment returns environment i.
func (s *Source) Environment(i int) fitness.Targets {
	return Generate(s.rng(i, streamTargets), s.geneCount, s.geneLength, s.alphabet)
}

// Changed returns environment i after count value mutations.
func (s *Source) Changed(i int, targets fitness.Targets, count int) fitness.Targets {
	return MutateValues(s.rng(i, streamChange), targets, count, s.alphabet)
}

func (s *Source) rng(i int, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(s.seed, uint64(i)<<1|stream))
}
