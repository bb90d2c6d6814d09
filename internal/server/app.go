// Package server initializes and runs the application: it opens the
// database, applies migrations, wires the identity service, and serves the
// HTTP API until shut down.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmarenkov/screenid/internal/logging"
	"github.com/dmarenkov/screenid/internal/mailer"
	"github.com/dmarenkov/screenid/internal/server/config"
	"github.com/dmarenkov/screenid/internal/server/httpapi"
	"github.com/dmarenkov/screenid/internal/server/repositories/repomanager"
	"github.com/dmarenkov/screenid/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	repos      repomanager.RepositoryManager
	identity   *services.IdentityService
	httpServer *httpapi.Server
}

func NewApp(c *config.Config) (*App, error) {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		return nil, fmt.Errorf("repository manager init error: %w", err)
	}

	var sender mailer.Sender
	if c.SMTPHost == "" {
		sender = mailer.NewLogSender(logger)
	} else {
		sender = mailer.NewSMTPSender(c.SMTPHost, c.SMTPPort, c.SMTPUser, c.SMTPPassword)
	}

	identity := services.NewIdentityService(db, rm, sender, logger, c)
	httpServer := httpapi.NewServer(identity, logger, c)

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		repos:      rm,
		identity:   identity,
		httpServer: httpServer,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	if err := app.repos.RunMigrations(ctx, app.db); err != nil {
		app.logger.Error(ctx, "migration error", "error", err.Error())
		return
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "http server shutdown error", "error", err.Error())
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(shutdownCtx, "db close error", "error", err.Error())
	}

	app.logger.Info(shutdownCtx, "App stopped")
}
