package output

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/inodb/genarch/internal/duckdb"
)

// RunWriter writes stored sampling runs in tab-delimited format.
type RunWriter struct {
	w *bufio.Writer
}

// NewRunWriter creates a new run listing writer.
func NewRunWriter(w io.Writer) *RunWriter {
	return &RunWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the header line.
func (rw *RunWriter) WriteHeader() error {
	_, err := rw.w.WriteString("#Run_id\tCreated\tSeed\tEnvs\tAlphabet\tChange_magnitude\tConfig\n")
	return err
}

// Write writes a single run.
func (rw *RunWriter) Write(r *duckdb.Run) error {
	config := r.Config.Path
	if config == "" {
		config = "-"
	}
	_, err := fmt.Fprintf(rw.w, "%s\t%s\t%d\t%d\t%s\t%d\t%s\n",
		r.ID, r.CreatedAt.UTC().Format(time.RFC3339), r.Seed, r.NumEnvs,
		r.Alphabet, r.ChangeMagnitude, config)
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (rw *RunWriter) Flush() error {
	return rw.w.Flush()
}
