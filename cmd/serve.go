package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zyzu25/CIANCSC/internal/bootstrap"
	"github.com/zyzu25/CIANCSC/internal/bootstrap/logging"
	"github.com/zyzu25/CIANCSC/internal/errs"
	contactuc "github.com/zyzu25/CIANCSC/internal/usecase/contact"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the contact form HTTP endpoint",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *contactuc.Service) error {
		ctx := cmd.Context()

		addr, _ := cmd.Flags().GetString("addr")
		addr = strings.TrimSpace(addr)
		if addr == "" {
			addr = app.Config.HTTP.Addr
		}
		skipMigrate, _ := cmd.Flags().GetBool("skip-migrate")

		if !skipMigrate {
			if err := app.InitSchema(ctx); err != nil {
				logging.Error(ctx, "initialize schema failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "initialize schema")
			}
		}

		server := &http.Server{
			Addr: addr,
			Handler: newContactAPIHandler(svc, contactAPIOptions{
				MaxBodyBytes: app.Config.HTTP.MaxBodyBytes,
				Health:       app.Ping,
			}),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       app.Config.HTTP.ReadTimeout,
			WriteTimeout:      app.Config.HTTP.WriteTimeout,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		}

		return serveUntilSignal(ctx, server, app.Config.HTTP.ShutdownTimeout)
	}),
}

func serveUntilSignal(ctx context.Context, server *http.Server, shutdownTimeout time.Duration) error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Info(ctx, "contact server started", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(ctx, "contact server failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "serve contact api")
		}
		return nil
	case <-sigCtx.Done():
	}

	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	logging.Info(ctx, "shutting down contact server", slog.Duration("timeout", shutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errs.Wrap(err, "shutdown contact server")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errs.Wrap(err, "serve contact api")
	}
	logging.Info(ctx, "contact server stopped")
	return nil
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default: http.addr from config)")
	serveCmd.Flags().Bool("skip-migrate", false, "Do not create or migrate the submissions table on start")
	rootCmd.AddCommand(serveCmd)
}
