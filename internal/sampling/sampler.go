// Package sampling validates the expected-fitness estimate against exact
// optima computed over many randomly drawn environments.
package sampling

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/inodb/genarch/internal/architecture"
	"github.com/inodb/genarch/internal/environment"
	"github.com/inodb/genarch/internal/fitness"
)

// ErrNoEnvironments is returned when a run is configured with no environments.
var ErrNoEnvironments = errors.New("number of environments must be positive")

// Candidate is an architecture to sample, with a display label.
type Candidate struct {
	Label string
	Arch  *architecture.Architecture
}

// Config controls a sampling run.
type Config struct {
	NumEnvs         int
	Seed            uint64
	Workers         int // 0 means runtime.NumCPU()
	Alphabet        environment.Alphabet
	ChangeMagnitude int // value mutations applied to each environment after optimising; 0 disables
}

// Report compares the expected optimal fitness of one architecture with the
// distribution of exact optima over the sampled environments.
type Report struct {
	Label           string  `json:"label"`
	GenomeLength    int     `json:"genome_length"`
	GeneCount       int     `json:"gene_count"`
	GeneLength      int     `json:"gene_length"`
	GeneStarts      []int   `json:"gene_starts"`
	NumEnvs         int     `json:"num_envs"`
	Expected        float64 `json:"expected"`
	Mean            float64 `json:"mean"`
	Median          float64 `json:"median"`
	StdDev          float64 `json:"stddev"`
	Min             float64 `json:"min"`
	Max             float64 `json:"max"`
	ChangeMagnitude int     `json:"change_magnitude,omitempty"`
	MeanAfterChange float64 `json:"mean_after_change,omitempty"`
}

// Sampler runs the expected-vs-exact comparison for a set of candidates.
type Sampler struct {
	cfg    Config
	logger *zap.Logger
}

// NewSampler creates a sampler. An empty alphabet defaults to binary.
func NewSampler(cfg Config) *Sampler {
	if len(cfg.Alphabet) == 0 {
		cfg.Alphabet = environment.Binary
	}
	return &Sampler{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for progress messages.
func (s *Sampler) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Config returns the effective configuration.
func (s *Sampler) Config() Config {
	return s.cfg
}

// Run samples every candidate in order. Candidates with the same gene count
// and gene length see the same environments.
func (s *Sampler) Run(ctx context.Context, candidates []Candidate) ([]Report, error) {
	if s.cfg.NumEnvs <= 0 {
		return nil, ErrNoEnvironments
	}

	reports := make([]Report, 0, len(candidates))
	for _, c := range candidates {
		r, err := s.Sample(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", c.Label, err)
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// Sample evaluates one candidate over all environments.
func (s *Sampler) Sample(ctx context.Context, c Candidate) (Report, error) {
	if s.cfg.NumEnvs <= 0 {
		return Report{}, ErrNoEnvironments
	}

	arch := c.Arch
	label := c.Label
	if label == "" {
		label = arch.Label()
	}

	src := environment.NewSource(s.cfg.Seed, arch.GeneCount(), arch.GeneLength(), s.cfg.Alphabet)

	g, gctx := errgroup.WithContext(ctx)
	items := make(chan WorkItem)
	g.Go(func() error {
		defer close(items)
		for i := range s.cfg.NumEnvs {
			select {
			case items <- WorkItem{Seq: i}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	results := ParallelEvaluate(arch, src, s.cfg.ChangeMagnitude, items, s.cfg.Workers)

	exact := make([]float64, 0, s.cfg.NumEnvs)
	after := make([]float64, 0, s.cfg.NumEnvs)
	collectErr := OrderedCollect(results, func(r WorkResult) error {
		if r.Err != nil {
			return fmt.Errorf("environment %d: %w", r.Seq, r.Err)
		}
		exact = append(exact, float64(r.Fitness))
		after = append(after, float64(r.AfterChange))
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	if collectErr != nil {
		return Report{}, collectErr
	}

	r := Report{
		Label:           label,
		GenomeLength:    arch.GenomeLength(),
		GeneCount:       arch.GeneCount(),
		GeneLength:      arch.GeneLength(),
		GeneStarts:      arch.GeneStarts(),
		NumEnvs:         len(exact),
		Expected:        fitness.ExpectedOptimalFitness(arch),
		Mean:            stat.Mean(exact, nil),
		Median:          Median(exact),
		Min:             floats.Min(exact),
		Max:             floats.Max(exact),
		ChangeMagnitude: s.cfg.ChangeMagnitude,
	}
	if len(exact) > 1 {
		r.StdDev = stat.StdDev(exact, nil)
	}
	if s.cfg.ChangeMagnitude > 0 {
		r.MeanAfterChange = stat.Mean(after, nil)
	}

	s.logger.Debug("sampled architecture",
		zap.String("label", label),
		zap.Int("envs", r.NumEnvs),
		zap.Float64("expected", r.Expected),
		zap.Float64("mean", r.Mean),
		zap.Float64("median", r.Median))

	return r, nil
}

// Median returns the middle value of xs, averaging the two middle values
// when len(xs) is even. xs is not modified. Returns 0 for no values.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
