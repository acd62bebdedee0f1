// Package architecture models the physical layout of genes on a circular genome.
package architecture

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidLayout is returned when layout parameters cannot describe a genome.
var ErrInvalidLayout = errors.New("invalid layout")

// Occupant identifies a gene covering a site and the gene-relative index
// that maps onto it.
type Occupant struct {
	GeneID    int
	GeneIndex int
}

// Architecture is an immutable gene layout with all positional
// relationships precomputed at construction.
type Architecture struct {
	genomeLength int
	geneCount    int
	geneLength   int
	geneStarts   []int

	positions   [][]int      // gene -> genome positions
	occupants   [][]int      // site -> sorted gene ids
	detail      [][]Occupant // site -> (gene id, gene index), ordered by gene id
	codingSites []int        // ascending
}

// New builds an architecture for geneCount genes of geneLength positions on a
// genome of genomeLength sites. Gene g covers (geneStarts[g]+i) mod genomeLength.
func New(genomeLength, geneCount, geneLength int, geneStarts []int) (*Architecture, error) {
	if genomeLength <= 0 {
		return nil, fmt.Errorf("%w: genome length %d must be positive", ErrInvalidLayout, genomeLength)
	}
	if geneLength <= 0 {
		return nil, fmt.Errorf("%w: gene length %d must be positive", ErrInvalidLayout, geneLength)
	}
	if geneCount < 0 {
		return nil, fmt.Errorf("%w: gene count %d is negative", ErrInvalidLayout, geneCount)
	}
	if len(geneStarts) != geneCount {
		return nil, fmt.Errorf("%w: %d gene starts for %d genes", ErrInvalidLayout, len(geneStarts), geneCount)
	}
	for g, s := range geneStarts {
		if s < 0 || s >= genomeLength {
			return nil, fmt.Errorf("%w: gene %d starts at %d, outside [0, %d)", ErrInvalidLayout, g, s, genomeLength)
		}
	}

	a := &Architecture{
		genomeLength: genomeLength,
		geneCount:    geneCount,
		geneLength:   geneLength,
		geneStarts:   append([]int(nil), geneStarts...),
		positions:    make([][]int, geneCount),
		occupants:    make([][]int, genomeLength),
		detail:       make([][]Occupant, genomeLength),
	}

	for g, start := range geneStarts {
		pos := make([]int, geneLength)
		for i := range pos {
			pos[i] = (start + i) % genomeLength
		}
		a.positions[g] = pos
	}

	// Genes are visited in id order, so per-site lists come out sorted.
	// A gene that wraps onto itself records only its first index at a site.
	for g, pos := range a.positions {
		for i, site := range pos {
			if n := len(a.occupants[site]); n > 0 && a.occupants[site][n-1] == g {
				continue
			}
			a.occupants[site] = append(a.occupants[site], g)
			a.detail[site] = append(a.detail[site], Occupant{GeneID: g, GeneIndex: i})
		}
	}

	for site, occ := range a.occupants {
		if len(occ) > 0 {
			a.codingSites = append(a.codingSites, site)
		}
	}

	return a, nil
}

// GenomeLength returns the number of sites in the genome.
func (a *Architecture) GenomeLength() int { return a.genomeLength }

// GeneCount returns the number of genes.
func (a *Architecture) GeneCount() int { return a.geneCount }

// GeneLength returns the number of positions per gene.
func (a *Architecture) GeneLength() int { return a.geneLength }

// GeneStarts returns a copy of the gene start offsets.
func (a *Architecture) GeneStarts() []int {
	return append([]int(nil), a.geneStarts...)
}

// MaxPossible is the fitness reached if every gene position could be
// satisfied independently.
func (a *Architecture) MaxPossible() int {
	return a.geneCount * a.geneLength
}

// PositionsOf returns the genome positions covered by gene, in gene order.
// The returned slice must not be modified. Returns nil for an unknown gene.
func (a *Architecture) PositionsOf(gene int) []int {
	if gene < 0 || gene >= a.geneCount {
		return nil
	}
	return a.positions[gene]
}

// Occupants returns the ids of genes covering site in ascending order.
// The returned slice must not be modified. Non-coding sites return nil.
func (a *Architecture) Occupants(site int) []int {
	if site < 0 || site >= a.genomeLength {
		return nil
	}
	return a.occupants[site]
}

// OccupancyDetail returns, for each gene covering site, the gene-relative
// index that maps onto it. The returned slice must not be modified.
func (a *Architecture) OccupancyDetail(site int) []Occupant {
	if site < 0 || site >= a.genomeLength {
		return nil
	}
	return a.detail[site]
}

// OccupantCount returns how many genes share site.
func (a *Architecture) OccupantCount(site int) int {
	return len(a.Occupants(site))
}

// IsCoding reports whether at least one gene covers site.
func (a *Architecture) IsCoding(site int) bool {
	return a.OccupantCount(site) > 0
}

// CodingSites returns the covered sites in ascending order.
// The returned slice must not be modified.
func (a *Architecture) CodingSites() []int {
	return a.codingSites
}

// NumCodingSites returns the number of covered sites.
func (a *Architecture) NumCodingSites() int {
	return len(a.codingSites)
}

// OverlappingSites returns the number of coding sites shared by more than one gene.
func (a *Architecture) OverlappingSites() int {
	n := 0
	for _, site := range a.codingSites {
		if len(a.occupants[site]) > 1 {
			n++
		}
	}
	return n
}

// Label renders the gene starts, e.g. "[0 2]".
func (a *Architecture) Label() string {
	return FormatStarts(a.geneStarts)
}

// String describes the layout dimensions and starts.
func (a *Architecture) String() string {
	return fmt.Sprintf("genome=%d genes=%d length=%d starts=%s",
		a.genomeLength, a.geneCount, a.geneLength, a.Label())
}

// FormatStarts renders gene starts as a bracketed, space separated list.
func FormatStarts(starts []int) string {
	parts := make([]string, len(starts))
	for i, s := range starts {
		parts[i] = fmt.Sprintf("%d", s)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// ParseStarts parses gene starts written as "0,2", "0 2" or "[0 2]".
func ParseStarts(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	starts := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: bad gene start %q", ErrInvalidLayout, f)
		}
		starts = append(starts, v)
	}
	return starts, nil
}
