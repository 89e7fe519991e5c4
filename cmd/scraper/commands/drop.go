package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newDropCmd(e *env) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "drop <table> | --all",
		Short: "Drops one table, or every table with --all.",
		Args: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return errors.New("pass either a table or --all, not both")
			}
			if !all && len(args) != 1 {
				return errors.New("expected exactly one table, or --all")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				dropped, err := e.app.Maintenance.DropAll(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "Dropped %d table(s).\n", len(dropped))
				return err
			}
			if err := e.app.Maintenance.Drop(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dropped %s.\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "drop every table in the store")
	return cmd
}
