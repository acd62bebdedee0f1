package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/genarch/internal/architecture"
	"github.com/inodb/genarch/internal/environment"
	"github.com/inodb/genarch/internal/sampling"
)

// Run describes one invocation of the sampler.
type Run struct {
	ID              string
	CreatedAt       time.Time
	Seed            uint64
	NumEnvs         int
	Alphabet        string // e.g. "0,1"
	ChangeMagnitude int
	Config          FileFingerprint // config file the run was configured from, if any
}

// NewRun creates a run record with a fresh ID for cfg.
func NewRun(cfg sampling.Config, config FileFingerprint) Run {
	return Run{
		ID:              uuid.NewString(),
		CreatedAt:       time.Now().UTC(),
		Seed:            cfg.Seed,
		NumEnvs:         cfg.NumEnvs,
		Alphabet:        FormatAlphabet(effectiveAlphabet(cfg)),
		ChangeMagnitude: cfg.ChangeMagnitude,
		Config:          config,
	}
}

// ReportKey identifies a report that can be reused instead of resampled.
type ReportKey struct {
	GenomeLength    int
	GeneCount       int
	GeneLength      int
	GeneStarts      []int
	NumEnvs         int
	Seed            uint64
	Alphabet        string
	ChangeMagnitude int
}

// KeyFor returns the cache key for sampling c under cfg.
func KeyFor(c sampling.Candidate, cfg sampling.Config) ReportKey {
	return ReportKey{
		GenomeLength:    c.Arch.GenomeLength(),
		GeneCount:       c.Arch.GeneCount(),
		GeneLength:      c.Arch.GeneLength(),
		GeneStarts:      c.Arch.GeneStarts(),
		NumEnvs:         cfg.NumEnvs,
		Seed:            cfg.Seed,
		Alphabet:        FormatAlphabet(effectiveAlphabet(cfg)),
		ChangeMagnitude: cfg.ChangeMagnitude,
	}
}

// effectiveAlphabet returns the alphabet the sampler draws from for cfg;
// an empty alphabet means binary, as in sampling.NewSampler.
func effectiveAlphabet(cfg sampling.Config) environment.Alphabet {
	if len(cfg.Alphabet) == 0 {
		return environment.Binary
	}
	return cfg.Alphabet
}

// FormatAlphabet renders an alphabet as comma separated values.
func FormatAlphabet(a environment.Alphabet) string {
	parts := make([]string, len(a))
	for i, v := range a {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// WriteRun stores a run and its reports using the Appender API.
func (s *Store) WriteRun(run Run, reports []sampling.Report) error {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var configModTime any
	if !run.Config.ModTime.IsZero() {
		configModTime = run.Config.ModTime.UTC()
	}

	if err := appendRows(conn, "sampling_runs", [][]driver.Value{{
		run.ID, run.CreatedAt, run.Seed, int64(run.NumEnvs), run.Alphabet,
		int64(run.ChangeMagnitude), run.Config.Path, run.Config.Size, configModTime,
	}}); err != nil {
		return fmt.Errorf("append run: %w", err)
	}

	rows := make([][]driver.Value, 0, len(reports))
	for i, r := range reports {
		rows = append(rows, []driver.Value{
			run.ID, int64(i), r.Label,
			int64(r.GenomeLength), int64(r.GeneCount), int64(r.GeneLength),
			architecture.FormatStarts(r.GeneStarts), int64(r.NumEnvs),
			r.Expected, r.Mean, r.Median, r.StdDev, r.Min, r.Max,
			int64(r.ChangeMagnitude), r.MeanAfterChange,
		})
	}
	if err := appendRows(conn, "sampling_reports", rows); err != nil {
		return fmt.Errorf("append reports: %w", err)
	}
	return nil
}

func appendRows(conn *sql.Conn, table string, rows [][]driver.Value) error {
	if len(rows) == 0 {
		return nil
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, row := range rows {
		if err := appender.AppendRow(row...); err != nil {
			return err
		}
	}
	return appender.Flush()
}

// DeleteRun removes a run and its reports.
func (s *Store) DeleteRun(runID string) error {
	if _, err := s.db.Exec("DELETE FROM sampling_reports WHERE run_id=?", runID); err != nil {
		return fmt.Errorf("delete reports: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM sampling_runs WHERE run_id=?", runID); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

// ListRuns returns all stored runs, oldest first.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(`SELECT
		run_id, created_at, seed, num_envs, alphabet, change_magnitude,
		config_path, config_size, config_modtime
		FROM sampling_runs
		ORDER BY created_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var numEnvs, changeMagnitude int64
		var modTime sql.NullTime
		if err := rows.Scan(
			&r.ID, &r.CreatedAt, &r.Seed, &numEnvs, &r.Alphabet, &changeMagnitude,
			&r.Config.Path, &r.Config.Size, &modTime,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.NumEnvs = int(numEnvs)
		r.ChangeMagnitude = int(changeMagnitude)
		if modTime.Valid {
			r.Config.ModTime = modTime.Time
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

const reportColumns = `r.label, r.genome_length, r.gene_count, r.gene_length, r.gene_starts,
		r.num_envs, r.expected, r.mean, r.median, r.stddev, r.min, r.max,
		r.change_magnitude, r.mean_after_change`

// LookupReports returns the reports of a run in the order they were written.
func (s *Store) LookupReports(runID string) ([]sampling.Report, error) {
	rows, err := s.db.Query(`SELECT `+reportColumns+`
		FROM sampling_reports r
		WHERE r.run_id=?
		ORDER BY r.ordinal`, runID)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

// FindReport returns the most recent stored report matching key, or nil if
// the architecture was never sampled with these settings.
func (s *Store) FindReport(key ReportKey) (*sampling.Report, error) {
	rows, err := s.db.Query(`SELECT `+reportColumns+`
		FROM sampling_reports r
		JOIN sampling_runs u ON u.run_id = r.run_id
		WHERE r.genome_length=? AND r.gene_count=? AND r.gene_length=?
		AND r.gene_starts=? AND r.num_envs=? AND r.change_magnitude=?
		AND u.alphabet=? AND CAST(u.seed AS VARCHAR)=?
		ORDER BY u.created_at DESC
		LIMIT 1`,
		int64(key.GenomeLength), int64(key.GeneCount), int64(key.GeneLength),
		architecture.FormatStarts(key.GeneStarts), int64(key.NumEnvs), int64(key.ChangeMagnitude),
		key.Alphabet, strconv.FormatUint(key.Seed, 10))
	if err != nil {
		return nil, fmt.Errorf("query report: %w", err)
	}
	defer rows.Close()

	reports, err := scanReports(rows)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, nil
	}
	return &reports[0], nil
}

// scanReports scans rows selected with reportColumns.
func scanReports(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]sampling.Report, error) {
	var reports []sampling.Report
	for rows.Next() {
		var r sampling.Report
		var genomeLength, geneCount, geneLength, numEnvs, changeMagnitude int64
		var starts string
		if err := rows.Scan(
			&r.Label, &genomeLength, &geneCount, &geneLength, &starts,
			&numEnvs, &r.Expected, &r.Mean, &r.Median, &r.StdDev, &r.Min, &r.Max,
			&changeMagnitude, &r.MeanAfterChange,
		); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}

		geneStarts, err := architecture.ParseStarts(starts)
		if err != nil {
			return nil, fmt.Errorf("scan report %s: %w", r.Label, err)
		}
		r.GenomeLength = int(genomeLength)
		r.GeneCount = int(geneCount)
		r.GeneLength = int(geneLength)
		r.GeneStarts = geneStarts
		r.NumEnvs = int(numEnvs)
		r.ChangeMagnitude = int(changeMagnitude)
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}
