package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/genarch/internal/duckdb"
	"github.com/inodb/genarch/internal/output"
	"github.com/inodb/genarch/internal/sampling"
)

// reportWriter is implemented by the tab and JSON report writers.
type reportWriter interface {
	WriteHeader() error
	Write(r *sampling.Report) error
	Flush() error
}

func newReportWriter(format string, w io.Writer) (reportWriter, error) {
	switch format {
	case "tab":
		return output.NewReportWriter(w), nil
	case "json":
		return output.NewJSONReportWriter(w), nil
	default:
		return nil, usagef("unknown output format %q", format)
	}
}

func newSampleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Compare expected with exact optimal fitness over random environments",
		Long: `Draw random environments, compute the exact optimal fitness of every
architecture in each of them, and report the distribution next to the
expected optimal fitness.

Architectures come from repeated --starts flags, the "architectures" list in
the config file, or the built-in two-gene overlap set. Results are
reproducible for a given --seed regardless of --workers.`,
		Example: `  genarch sample
  genarch sample --envs 100000 --seed 7 --starts 0,0 --starts 0,4
  genarch sample --alphabet 0,1,2,3 --format json
  genarch sample --store runs.duckdb --reuse`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, "envs", "seed", "workers", "alphabet",
				"change-magnitude", "store", "reuse", "format"); err != nil {
				return err
			}
			return runSample(cmd, a.logger)
		},
	}

	addLayoutFlags(cmd)
	cmd.Flags().Int("envs", 10000, "Number of random environments")
	cmd.Flags().Uint64("seed", 1, "Random seed")
	cmd.Flags().Int("workers", 0, "Parallel workers (default: number of CPUs)")
	cmd.Flags().String("alphabet", "0,1", "Site values targets are drawn from")
	cmd.Flags().Int("change-magnitude", 0, "Target mutations applied after optimising (0 disables)")
	cmd.Flags().String("store", "", "DuckDB file to record the run in")
	cmd.Flags().Bool("reuse", false, "Reuse stored reports sampled with identical settings (requires --store)")
	cmd.Flags().StringP("format", "f", "tab", "Output format: tab, json")

	return cmd
}

func runSample(cmd *cobra.Command, logger *zap.Logger) error {
	candidates, err := resolveCandidates(cmd)
	if err != nil {
		return err
	}
	alpha, err := resolveAlphabet()
	if err != nil {
		return err
	}

	cfg := sampling.Config{
		NumEnvs:         viper.GetInt("envs"),
		Seed:            viper.GetUint64("seed"),
		Workers:         viper.GetInt("workers"),
		Alphabet:        alpha,
		ChangeMagnitude: viper.GetInt("change_magnitude"),
	}
	if cfg.NumEnvs <= 0 {
		return &usageError{err: sampling.ErrNoEnvironments}
	}
	if cfg.ChangeMagnitude < 0 {
		return usagef("change magnitude must not be negative, got %d", cfg.ChangeMagnitude)
	}

	writer, err := newReportWriter(viper.GetString("format"), cmd.OutOrStdout())
	if err != nil {
		return err
	}

	storePath := viper.GetString("store")
	reuse := viper.GetBool("reuse")
	if reuse && storePath == "" {
		return usagef("--reuse requires --store")
	}

	var store *duckdb.Store
	if storePath != "" {
		if store, err = duckdb.Open(storePath); err != nil {
			return err
		}
		defer store.Close()
	}

	sampler := sampling.NewSampler(cfg)
	sampler.SetLogger(logger)

	reports := make([]sampling.Report, len(candidates))
	for i, c := range candidates {
		if reuse {
			cached, err := store.FindReport(duckdb.KeyFor(c, cfg))
			if err != nil {
				return err
			}
			if cached != nil {
				logger.Debug("reusing stored report", zap.String("label", c.Label))
				cached.Label = c.Label
				reports[i] = *cached
				continue
			}
		}

		r, err := sampler.Sample(cmd.Context(), c)
		if err != nil {
			return fmt.Errorf("sample %s: %w", c.Label, err)
		}
		reports[i] = r
	}

	if store != nil {
		fingerprint, err := duckdb.StatFile(viper.ConfigFileUsed())
		if err != nil {
			logger.Warn("could not stat config file", zap.Error(err))
		}
		run := duckdb.NewRun(sampler.Config(), fingerprint)
		if err := store.WriteRun(run, reports); err != nil {
			return fmt.Errorf("store run: %w", err)
		}
		logger.Info("stored sampling run",
			zap.String("run_id", run.ID),
			zap.String("store", storePath),
			zap.Int("reports", len(reports)))
	}

	if err := writer.WriteHeader(); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i := range reports {
		if err := writer.Write(&reports[i]); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}
	return writer.Flush()
}
