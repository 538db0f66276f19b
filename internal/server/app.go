// Package server initializes and runs the account server: it opens the
// database pool, applies migrations, builds the services and serves them
// over HTTP until the process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gamestarter/internal/logging"
	"github.com/dmitrijs2005/gamestarter/internal/server/config"
	"github.com/dmitrijs2005/gamestarter/internal/server/httpapi"
	"github.com/dmitrijs2005/gamestarter/internal/server/passwords"
	"github.com/dmitrijs2005/gamestarter/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gamestarter/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	auth      *services.AuthService
	audit     *services.AuditService
	directory *services.DirectoryService
}

// OpenDB opens the pgx-backed pool described by c and applies migrations.
func OpenDB(ctx context.Context, c *config.Config, m repomanager.RepositoryManager) (*sql.DB, error) {
	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	db.SetMaxOpenConns(c.MaxOpenConns)

	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return db, nil
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	rm := repomanager.NewPostgresRepositoryManager()
	db, err := OpenDB(context.Background(), c, rm)
	if err != nil {
		return nil, err
	}

	return newApp(c, logger, db, rm), nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) *App {
	codec := passwords.NewBcryptCodec(c.BcryptCost, logger)
	audit := services.NewAuditService(db, rm, logger)

	return &App{
		config:    c,
		logger:    logger,
		db:        db,
		audit:     audit,
		auth:      services.NewAuthService(db, rm, codec, audit, logger),
		directory: services.NewDirectoryService(db, rm, codec, logger),
	}
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

	s := httpapi.NewHTTPServer(httpapi.Options{
		Address:         app.config.EndpointAddrHTTP,
		AllowedOrigins:  app.config.Origins(),
		RequestTimeout:  app.config.RequestTimeout,
		ShutdownTimeout: app.config.ShutdownTimeout,
	}, app.logger, app.auth, app.directory, app.audit, app.db)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the database pool.
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
		app.logger.Error(context.Background(), "failed to close database", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
