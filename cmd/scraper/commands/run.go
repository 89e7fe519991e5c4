package commands

import (
	"errors"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newRunCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "run [dataset...]",
		Short: "Extracts the given datasets, or all configured datasets, into the store.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(e.datasets) == 0 {
				return errors.New("no datasets configured; check DATASETS_FILE")
			}

			results, runErr := e.app.Runner.RunAll(cmd.Context(), args...)

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Dataset", "Table", "Written", "Skipped", "Duplicates", "Failed", "Elapsed", "Status"})
			for _, s := range results {
				status := "completed"
				if s.Aborted {
					status = "aborted"
				}
				t.AppendRow(table.Row{
					s.Dataset, s.Table, s.Written, s.Skipped, s.Duplicates, s.Failed,
					s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond), status,
				})
			}
			t.Render()
			return runErr
		},
	}
}
