package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/zyzu25/CIANCSC/internal/bootstrap/config"
	"github.com/zyzu25/CIANCSC/internal/bootstrap/database"
	"github.com/zyzu25/CIANCSC/internal/bootstrap/logging"
	"github.com/zyzu25/CIANCSC/internal/errs"
	"github.com/zyzu25/CIANCSC/internal/infrastructure/persistence/sqlite/model"
)

type App struct {
	Config config.Config
	DB     *gorm.DB
}

func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "start schema migration")

	if err := a.DB.WithContext(ctx).AutoMigrate(&model.Submission{}); err != nil {
		return errs.Wrap(err, "auto migrate schema")
	}

	logging.Info(logCtx, "schema migration completed")
	return nil
}

// Ping reports whether the backing store is reachable.
func (a *App) Ping(ctx context.Context) error {
	return database.Ping(ctx, a.DB)
}
