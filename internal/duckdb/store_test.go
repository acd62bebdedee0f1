package duckdb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/genarch/internal/architecture"
	"github.com/inodb/genarch/internal/environment"
	"github.com/inodb/genarch/internal/sampling"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testReports() []sampling.Report {
	return []sampling.Report{
		{
			Label: "[0 0]", GenomeLength: 16, GeneCount: 2, GeneLength: 8,
			GeneStarts: []int{0, 0}, NumEnvs: 1000,
			Expected: 12, Mean: 11.98, Median: 12, StdDev: 1.4, Min: 8, Max: 16,
		},
		{
			Label: "[0 8]", GenomeLength: 16, GeneCount: 2, GeneLength: 8,
			GeneStarts: []int{0, 8}, NumEnvs: 1000,
			Expected: 16, Mean: 16, Median: 16, Min: 16, Max: 16,
		},
	}
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
	assert.Empty(t, s.Path())
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "runs.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
	assert.Equal(t, path, s.Path())
}

func TestWriteAndLookupReports(t *testing.T) {
	s := openInMemory(t)

	run := NewRun(sampling.Config{NumEnvs: 1000, Seed: 42, Alphabet: environment.Binary}, FileFingerprint{})
	require.NoError(t, s.WriteRun(run, testReports()))

	reports, err := s.LookupReports(run.ID)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, testReports(), reports)

	reports, err = s.LookupReports("no-such-run")
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestListRuns(t *testing.T) {
	s := openInMemory(t)

	modTime := time.Date(2024, 5, 30, 12, 0, 0, 0, time.UTC)
	first := NewRun(sampling.Config{NumEnvs: 10, Seed: 1, Alphabet: environment.Binary},
		FileFingerprint{Path: "/tmp/genarch.yaml", Size: 120, ModTime: modTime})
	second := NewRun(sampling.Config{NumEnvs: 20, Seed: 1<<63 + 5, Alphabet: environment.Alphabet{0, 1, 2}, ChangeMagnitude: 4},
		FileFingerprint{})
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	require.NoError(t, s.WriteRun(first, nil))
	require.NoError(t, s.WriteRun(second, testReports()))

	runs, err := s.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, first.ID, runs[0].ID)
	assert.Equal(t, "/tmp/genarch.yaml", runs[0].Config.Path)
	assert.Equal(t, int64(120), runs[0].Config.Size)
	assert.True(t, modTime.Equal(runs[0].Config.ModTime))
	assert.WithinDuration(t, first.CreatedAt, runs[0].CreatedAt, time.Millisecond)

	assert.Equal(t, second.ID, runs[1].ID)
	assert.Equal(t, uint64(1<<63+5), runs[1].Seed)
	assert.Equal(t, "0,1,2", runs[1].Alphabet)
	assert.Equal(t, 4, runs[1].ChangeMagnitude)
	assert.Equal(t, 20, runs[1].NumEnvs)
	assert.True(t, runs[1].Config.ModTime.IsZero())
}

func TestFindReport(t *testing.T) {
	s := openInMemory(t)

	cfg := sampling.Config{NumEnvs: 1000, Seed: 42}
	run := NewRun(cfg, FileFingerprint{})
	require.NoError(t, s.WriteRun(run, testReports()))

	a, err := architecture.New(16, 2, 8, []int{0, 8})
	require.NoError(t, err)
	c := sampling.Candidate{Label: "other label", Arch: a}

	r, err := s.FindReport(KeyFor(c, cfg))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "[0 8]", r.Label)
	assert.Equal(t, 16.0, r.Expected)

	// Any differing setting misses.
	misses := []sampling.Config{
		{NumEnvs: 999, Seed: 42},
		{NumEnvs: 1000, Seed: 43},
		{NumEnvs: 1000, Seed: 42, Alphabet: environment.Alphabet{0, 1, 2}},
		{NumEnvs: 1000, Seed: 42, ChangeMagnitude: 1},
	}
	for _, miss := range misses {
		r, err := s.FindReport(KeyFor(c, miss))
		require.NoError(t, err)
		assert.Nil(t, r, "%+v", miss)
	}

	b, err := architecture.New(16, 2, 8, []int{0, 7})
	require.NoError(t, err)
	r, err = s.FindReport(KeyFor(sampling.Candidate{Arch: b}, cfg))
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestFindReport_EmptyAlphabetMeansBinary(t *testing.T) {
	s := openInMemory(t)

	cfg := sampling.Config{NumEnvs: 1000, Seed: 42}
	run := NewRun(cfg, FileFingerprint{})
	assert.Equal(t, "0,1", run.Alphabet)
	require.NoError(t, s.WriteRun(run, testReports()))

	a, err := architecture.New(16, 2, 8, []int{0, 0})
	require.NoError(t, err)

	for _, lookup := range []sampling.Config{cfg, {NumEnvs: 1000, Seed: 42, Alphabet: environment.Binary}} {
		r, err := s.FindReport(KeyFor(sampling.Candidate{Arch: a}, lookup))
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.Equal(t, "[0 0]", r.Label)
	}
}

func TestDeleteRun(t *testing.T) {
	s := openInMemory(t)

	run := NewRun(sampling.Config{NumEnvs: 5}, FileFingerprint{})
	require.NoError(t, s.WriteRun(run, testReports()))
	require.NoError(t, s.DeleteRun(run.ID))

	runs, err := s.ListRuns()
	require.NoError(t, err)
	assert.Empty(t, runs)

	reports, err := s.LookupReports(run.ID)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestFormatAlphabet(t *testing.T) {
	assert.Equal(t, "0,1", FormatAlphabet(environment.Binary))
	assert.Equal(t, "", FormatAlphabet(nil))
}

func TestStatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genarch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("envs: 10\n"), 0644))

	fp, err := StatFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, fp.Path)
	assert.Equal(t, int64(9), fp.Size)
	assert.False(t, fp.ModTime.IsZero())

	fp, err = StatFile("")
	require.NoError(t, err)
	assert.Equal(t, FileFingerprint{}, fp)

	_, err = StatFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
