package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/user/equipment-scraper/internal/export"
)

func newExportCmd(e *env) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export [table...]",
		Short: "Writes tables to files, one file per table. Exports every table when none is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			tables := args
			if len(tables) == 0 {
				summaries, err := e.app.Maintenance.ListTables(cmd.Context())
				if err != nil {
					return err
				}
				for _, ts := range summaries {
					if ts.Foreign {
						fmt.Fprintf(cmd.OutOrStdout(), "Skipped %s: not a normalized table name\n", ts.Name)
						continue
					}
					tables = append(tables, ts.Name)
				}
			}

			if err := os.MkdirAll(out, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			for _, table := range tables {
				path, err := exportTable(cmd, e, table, f, out)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", table, path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.CSV), "output format: csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "exports", "output directory")
	return cmd
}

func exportTable(cmd *cobra.Command, e *env, table string, f export.Format, dir string) (string, error) {
	ts, err := e.app.Maintenance.Describe(cmd.Context(), table)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, ts.Table+f.Extension())
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := e.app.Maintenance.Export(cmd.Context(), ts.Table, f, file); err != nil {
		file.Close()
		return "", fmt.Errorf("failed to export %s: %w", ts.Table, err)
	}
	return path, file.Close()
}
