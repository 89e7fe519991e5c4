package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newTablesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Lists the tables in the store with their column and row counts.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := e.app.Maintenance.ListTables(cmd.Context())
			if err != nil {
				return err
			}
			if len(tables) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tables.")
				return nil
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Table", "Columns", "Rows", "Note"})
			for _, ts := range tables {
				note := ""
				if ts.Foreign {
					note = "foreign name, read-only"
				}
				t.AppendRow(table.Row{ts.Name, ts.ColumnCount, ts.RowCount, note})
			}
			t.Render()
			return nil
		},
	}
}

func newColumnsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "columns <table>",
		Short: "Shows the columns of a table in table order.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := e.app.Maintenance.Describe(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"#", "Column", "Type"})
			for i, c := range ts.Columns {
				t.AppendRow(table.Row{i + 1, c.Name, c.Type})
			}
			t.Render()
			return nil
		},
	}
}

func newShowCmd(e *env) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "show <table>",
		Short: "Prints rows of a table; NULL cells are shown as NULL.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := e.app.Maintenance.Rows(cmd.Context(), args[0], limit, offset)
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			header := make(table.Row, len(data.Columns))
			for i, c := range data.Columns {
				header[i] = c
			}
			t.AppendHeader(header)
			for _, r := range data.Rows {
				row := make(table.Row, len(r))
				for i, v := range r {
					row[i] = cellText(v)
				}
				t.AppendRow(row)
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of rows; 0 shows all")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of rows to skip")
	return cmd
}
