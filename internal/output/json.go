package output

import (
	"encoding/json"
	"io"

	"github.com/inodb/genarch/internal/sampling"
)

// JSONReportWriter writes one JSON object per report, one per line.
type JSONReportWriter struct {
	enc *json.Encoder
}

// NewJSONReportWriter creates a JSON lines report writer.
func NewJSONReportWriter(w io.Writer) *JSONReportWriter {
	return &JSONReportWriter{enc: json.NewEncoder(w)}
}

// WriteHeader is a no-op; JSON lines carry no header.
func (jw *JSONReportWriter) WriteHeader() error {
	return nil
}

// Write writes a single report.
func (jw *JSONReportWriter) Write(r *sampling.Report) error {
	return jw.enc.Encode(r)
}

// Flush is a no-op; every Write goes straight to the underlying writer.
func (jw *JSONReportWriter) Flush() error {
	return nil
}
