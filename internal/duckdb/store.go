// Package duckdb persists sampling runs and their per-architecture reports
// in DuckDB (queryable, append-only).
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for sampling results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS sampling_runs (
		run_id VARCHAR PRIMARY KEY,
		created_at TIMESTAMP,
		seed UBIGINT,
		num_envs BIGINT,
		alphabet VARCHAR,
		change_magnitude BIGINT,
		config_path VARCHAR,
		config_size BIGINT,
		config_modtime TIMESTAMP
	)`); err != nil {
		return err
	}

	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS sampling_reports (
		run_id VARCHAR,
		ordinal BIGINT,
		label VARCHAR,
		genome_length BIGINT,
		gene_count BIGINT,
		gene_length BIGINT,
		gene_starts VARCHAR,
		num_envs BIGINT,
		expected DOUBLE,
		mean DOUBLE,
		median DOUBLE,
		stddev DOUBLE,
		min DOUBLE,
		max DOUBLE,
		change_magnitude BIGINT,
		mean_after_change DOUBLE,
		PRIMARY KEY (run_id, ordinal)
	)`)
	return err
}
