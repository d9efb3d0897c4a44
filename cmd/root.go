package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/zyzu25/CIANCSC/internal/bootstrap/logging"
	"github.com/zyzu25/CIANCSC/internal/errs"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "ncsc-contact",
	Short:        "Contact form backend for the NCSC community site",
	Long:         "Accepts contact-form submissions, stores them and announces them to the staff chat webhook.",
	SilenceUsage: true,
}

// Execute runs the CLI. It is called once by main.main().
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logger := logging.New(rootCmd.ErrOrStderr(), "text", "info")
	ctx = logging.WithLogger(ctx, logger)
	ctx = logging.WithAttrs(ctx, slog.String("app", "ncsc-contact"))

	rootCmd.SetContext(ctx)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Error(ctx, "command execution failed", slog.Any("err", errs.Loggable(err)))
		return errs.Wrap(err, "execute root command")
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file path (default: configs/config.yaml when present)")
}
