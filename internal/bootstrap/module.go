package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/zyzu25/CIANCSC/internal/bootstrap/config"
	"github.com/zyzu25/CIANCSC/internal/bootstrap/database"
	"github.com/zyzu25/CIANCSC/internal/bootstrap/logging"
	sqliterepo "github.com/zyzu25/CIANCSC/internal/infrastructure/persistence/sqlite/repository"
	"github.com/zyzu25/CIANCSC/internal/infrastructure/relay/discord"
	"github.com/zyzu25/CIANCSC/internal/ports"
	contactuc "github.com/zyzu25/CIANCSC/internal/usecase/contact"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewSubmissionRepository,
			fx.As(new(ports.SubmissionRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			provideRelay,
			fx.As(new(ports.Relay)),
		),
	),
	fx.Provide(contactuc.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			logging.Info(logCtx, "database connection closed")
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideRelay(cfg config.Config) *discord.WebhookRelay {
	return discord.NewWebhookRelay(cfg.Relay)
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}
