package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/zyzu25/CIANCSC/internal/bootstrap"
	"github.com/zyzu25/CIANCSC/internal/bootstrap/logging"
	"github.com/zyzu25/CIANCSC/internal/errs"
	contactuc "github.com/zyzu25/CIANCSC/internal/usecase/contact"
)

var initDbCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create or migrate the submissions table",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, _ *contactuc.Service) error {
		ctx := cmd.Context()
		logging.Info(ctx, "start init-db")

		if err := app.InitSchema(ctx); err != nil {
			logging.Error(ctx, "initialize schema failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "initialize schema")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "database schema initialized (%s)\n", app.Config.Database.Driver); err != nil {
			return errs.Wrap(err, "write init-db output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(initDbCmd)
}
