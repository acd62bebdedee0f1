package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/genarch/internal/duckdb"
	"github.com/inodb/genarch/internal/output"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List stored sampling runs or show the reports of one run",
		Example: `  genarch runs --store runs.duckdb
  genarch runs --store runs.duckdb 0b6e7c1e-0f4a-4c1e-9a55-3f0c2d8b9a10
  genarch runs --store runs.duckdb --delete 0b6e7c1e-0f4a-4c1e-9a55-3f0c2d8b9a10`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, "store", "format"); err != nil {
				return err
			}
			storePath := viper.GetString("store")
			if storePath == "" {
				return usagef("--store is required")
			}
			del, _ := cmd.Flags().GetBool("delete")
			if del && len(args) == 0 {
				return usagef("--delete requires a run id")
			}

			store, err := duckdb.Open(storePath)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			switch {
			case del:
				if err := store.DeleteRun(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(out, "Deleted run %s\n", args[0])
				return nil

			case len(args) == 1:
				reports, err := store.LookupReports(args[0])
				if err != nil {
					return err
				}
				if len(reports) == 0 {
					return fmt.Errorf("no reports for run %q", args[0])
				}
				w, err := newReportWriter(viper.GetString("format"), out)
				if err != nil {
					return err
				}
				if err := w.WriteHeader(); err != nil {
					return fmt.Errorf("writing header: %w", err)
				}
				for i := range reports {
					if err := w.Write(&reports[i]); err != nil {
						return fmt.Errorf("writing report: %w", err)
					}
				}
				return w.Flush()

			default:
				runs, err := store.ListRuns()
				if err != nil {
					return err
				}
				w := output.NewRunWriter(out)
				if err := w.WriteHeader(); err != nil {
					return fmt.Errorf("writing header: %w", err)
				}
				for i := range runs {
					if err := w.Write(&runs[i]); err != nil {
						return fmt.Errorf("writing run: %w", err)
					}
				}
				return w.Flush()
			}
		},
	}

	cmd.Flags().String("store", "", "DuckDB file holding sampling runs")
	cmd.Flags().StringP("format", "f", "tab", "Report output format: tab, json")
	cmd.Flags().Bool("delete", false, "Delete the given run")

	return cmd
}
