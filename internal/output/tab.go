// Package output provides sampling report and architecture formatters.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/genarch/internal/architecture"
	"github.com/inodb/genarch/internal/sampling"
)

// ReportWriter writes sampling reports in tab-delimited format.
type ReportWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewReportWriter creates a new tab-delimited report writer.
func NewReportWriter(w io.Writer) *ReportWriter {
	return &ReportWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#Label",
			"Genome_length",
			"Gene_count",
			"Gene_length",
			"Gene_starts",
			"Envs",
			"Expected",
			"Mean",
			"Median",
			"StdDev",
			"Min",
			"Max",
			"Change_magnitude",
			"Mean_after_change",
		},
	}
}

// WriteHeader writes the header line.
func (rw *ReportWriter) WriteHeader() error {
	_, err := rw.w.WriteString(strings.Join(rw.columns, "\t") + "\n")
	return err
}

// Write writes a single report.
func (rw *ReportWriter) Write(r *sampling.Report) error {
	label := r.Label
	if label == "" {
		label = "-"
	}

	// Change columns only apply when environments were perturbed.
	change := "-"
	afterChange := "-"
	if r.ChangeMagnitude > 0 {
		change = strconv.Itoa(r.ChangeMagnitude)
		afterChange = formatFloat(r.MeanAfterChange)
	}

	values := []string{
		label,
		strconv.Itoa(r.GenomeLength),
		strconv.Itoa(r.GeneCount),
		strconv.Itoa(r.GeneLength),
		architecture.FormatStarts(r.GeneStarts),
		strconv.Itoa(r.NumEnvs),
		formatFloat(r.Expected),
		formatFloat(r.Mean),
		formatFloat(r.Median),
		formatFloat(r.StdDev),
		formatFloat(r.Min),
		formatFloat(r.Max),
		change,
		afterChange,
	}

	_, err := rw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (rw *ReportWriter) Flush() error {
	return rw.w.Flush()
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
