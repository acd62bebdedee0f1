package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/genarch/internal/architecture"
	"github.com/inodb/genarch/internal/fitness"
)

// WriteArchitecture prints the derived layout of a and its expected optimal
// fitness.
func WriteArchitecture(w io.Writer, a *architecture.Architecture) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Genome length:\t%d\n", a.GenomeLength())
	fmt.Fprintf(bw, "Gene length:\t%d\n", a.GeneLength())
	fmt.Fprintf(bw, "Gene count:\t%d\n", a.GeneCount())
	fmt.Fprintf(bw, "Gene starts:\t%s\n", a.Label())

	for g := range a.GeneCount() {
		fmt.Fprintf(bw, "Gene %d positions:\t%s\n", g, architecture.FormatStarts(a.PositionsOf(g)))
	}

	fmt.Fprintf(bw, "Coding sites:\t%d of %d\n", a.NumCodingSites(), a.GenomeLength())
	fmt.Fprintf(bw, "Overlapping sites:\t%d\n", a.OverlappingSites())

	bw.WriteString("#Site\tOccupants\tCount\n")
	for _, site := range a.CodingSites() {
		occ := a.OccupancyDetail(site)
		parts := make([]string, len(occ))
		for i, o := range occ {
			parts[i] = fmt.Sprintf("%d:%d", o.GeneID, o.GeneIndex)
		}
		fmt.Fprintf(bw, "%d\t%s\t%d\n", site, strings.Join(parts, ","), a.OccupantCount(site))
	}

	fmt.Fprintf(bw, "Max possible fitness:\t%d\n", a.MaxPossible())
	fmt.Fprintf(bw, "Expected optimal fitness:\t%s\n", formatFloat(fitness.ExpectedOptimalFitness(a)))

	return bw.Flush()
}

// FormatSiteValues renders optimal site values from the last site to the
// first, with X marking non-coding sites. Values above 9 are bracketed.
func FormatSiteValues(values []int) string {
	var b strings.Builder
	for i := len(values) - 1; i >= 0; i-- {
		v := values[i]
		switch {
		case v == fitness.Unset:
			b.WriteByte('X')
		case v >= 0 && v <= 9:
			b.WriteByte(byte('0' + v))
		default:
			b.WriteString("[" + strconv.Itoa(v) + "]")
		}
	}
	return b.String()
}

// WriteOptimum prints the optimal genome for one environment.
func WriteOptimum(w io.Writer, a *architecture.Architecture, opt fitness.Optimum) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Architecture:\t%s\n", a.Label())
	fmt.Fprintf(bw, "Optimal genome:\t%s\n", FormatSiteValues(opt.SiteValues))
	fmt.Fprintf(bw, "Optimal fitness:\t%d of %d\n", opt.Fitness, a.MaxPossible())
	fmt.Fprintf(bw, "Expected optimal fitness:\t%s\n", formatFloat(fitness.ExpectedOptimalFitness(a)))
	return bw.Flush()
}

// Evaluation is the fitness of one genome next to the best it could reach.
type Evaluation struct {
	Genome  string // genome line as read
	Label   string
	Fitness int
	Optimal int
	Max     int
}

// EvaluationWriter writes genome evaluations in tab-delimited format.
type EvaluationWriter struct {
	w *bufio.Writer
}

// NewEvaluationWriter creates a new evaluation writer.
func NewEvaluationWriter(w io.Writer) *EvaluationWriter {
	return &EvaluationWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the header line.
func (ew *EvaluationWriter) WriteHeader() error {
	_, err := ew.w.WriteString("#Genome\tArchitecture\tFitness\tOptimal\tMax\tGap\n")
	return err
}

// Write writes a single evaluation.
func (ew *EvaluationWriter) Write(e Evaluation) error {
	_, err := fmt.Fprintf(ew.w, "%s\t%s\t%d\t%d\t%d\t%d\n",
		e.Genome, e.Label, e.Fitness, e.Optimal, e.Max, e.Optimal-e.Fitness)
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (ew *EvaluationWriter) Flush() error {
	return ew.w.Flush()
}
