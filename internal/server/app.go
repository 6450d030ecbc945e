// Package server wires the AnimeFlix components together: it opens the
// store, applies migrations, builds the services and serves HTTP until
// the process is signalled to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/animeflix/internal/dbx"
	"github.com/dmitrijs2005/animeflix/internal/logging"
	"github.com/dmitrijs2005/animeflix/internal/server/artwork"
	"github.com/dmitrijs2005/animeflix/internal/server/auth"
	"github.com/dmitrijs2005/animeflix/internal/server/config"
	"github.com/dmitrijs2005/animeflix/internal/server/httpapi"
	"github.com/dmitrijs2005/animeflix/internal/server/metrics"
	"github.com/dmitrijs2005/animeflix/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/animeflix/internal/server/services"
)

const (
	migrationTimeout = time.Minute
	maxOpenConns     = 20
	maxIdleConns     = 5
	connMaxLifetime  = 30 * time.Minute
)

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler http.Handler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	db, err := sqlOpen("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	app, err := newApp(ctx, c, db, repomanager.NewPostgresRepositoryManager(), logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) (*App, error) {
	migrateCtx, cancel := context.WithTimeout(ctx, migrationTimeout)
	defer cancel()
	if err := rm.RunMigrations(migrateCtx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	if c.UsesDefaultSecretKey() {
		logger.Warn(ctx, "signing tokens with the built-in development secret key; set ANIMEFLIX_SECRET_KEY or -s")
	}

	m := metrics.New()
	guard := dbx.NewGuard(dbx.GuardSettings{
		Name:          "store",
		Timeout:       c.StoreTimeout,
		OnStateChange: m.BreakerStateChanged,
	})

	art, err := artwork.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("artwork storage: %w", err)
	}

	issuer := auth.NewTokenIssuer([]byte(c.SecretKey), c.AccessTokenTTL)
	hasher := auth.NewBcryptHasher(c.BcryptCost)

	as, err := services.NewAccountService(db, rm, guard, hasher, issuer, logger)
	if err != nil {
		return nil, fmt.Errorf("account service: %w", err)
	}
	fs := services.NewFavoritesService(db, rm, guard)
	cs := services.NewCatalogService(db, rm, guard, art)

	h := httpapi.NewHandler(c, logger, m, issuer, db, as, fs, cs)

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		handler: h.Routes(),
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
	s := httpapi.NewServer(app.config.HTTPAddr, app.handler, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
