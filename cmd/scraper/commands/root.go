package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/equipment-scraper/internal/app"
	"github.com/user/equipment-scraper/internal/entity"
	"github.com/user/equipment-scraper/pkg/config"
	"github.com/user/equipment-scraper/pkg/logger"
)

// env is what every subcommand works against. It is filled in by the root
// command before a subcommand runs.
type env struct {
	cfg      *config.Config
	logger   *zap.Logger
	datasets []entity.Dataset
	app      *app.App
}

func (e *env) close() {
	if e.app != nil {
		e.app.Close()
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
}

func newRootCmd(e *env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "scraper",
		Short:         "scraper collects equipment specifications into per-dataset tables.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			e.cfg = cfg

			e.logger, err = logger.New(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("could not build logger: %w", err)
			}

			e.datasets, err = config.LoadDatasets(cfg.DatasetsFile)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			e.app, err = app.New(cmd.Context(), cfg, e.datasets, e.logger)
			return err
		},
	}

	rootCmd.AddCommand(
		newRunCmd(e),
		newTablesCmd(e),
		newColumnsCmd(e),
		newShowCmd(e),
		newDropCmd(e),
		newExportCmd(e),
	)
	return rootCmd
}

// execute runs one command line. Connections opened for it are closed
// on return, whether or not the command failed.
func execute(ctx context.Context, args []string, out io.Writer) error {
	e := &env{}
	defer e.close()

	rootCmd := newRootCmd(e)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	return rootCmd.ExecuteContext(ctx)
}

// ExecuteContext runs the CLI and exits with status 1 on any error,
// including an aborted run.
func ExecuteContext(ctx context.Context) {
	if err := execute(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func cellText(v *string) string {
	if v == nil {
		return "NULL"
	}
	return *v
}
