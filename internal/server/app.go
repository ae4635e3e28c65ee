// Package server initializes and runs the API server: it wires the
// database, the vault client, the object store and the HTTP surface, and
// handles graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/arkadym/sealbox/internal/logging"
	"github.com/arkadym/sealbox/internal/server/config"
	"github.com/arkadym/sealbox/internal/server/httpapi"
	"github.com/arkadym/sealbox/internal/server/repositories/repomanager"
	"github.com/arkadym/sealbox/internal/server/services"
	"github.com/arkadym/sealbox/internal/vaultclient"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	api    *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	vc := vaultclient.New(cfg.VaultBaseURL, cfg.VaultToken, cfg.VaultTimeout)

	api := httpapi.NewServer(logger, cfg,
		services.NewUserService(db, rm, cfg),
		services.NewBundleService(db, rm, vc),
		services.NewShareService(db, rm),
		services.NewTransferService(db, rm, cfg),
		services.NewRecoveryService(db, rm, cfg, &services.LogNotifier{Logger: logger}, logger))

	return &App{config: cfg, logger: logger, db: db, api: api}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")
	app.initSignalHandler(cancelFunc)

	if err := app.api.Run(ctx); err != nil {
		app.logger.Error(ctx, "api server stopped", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
