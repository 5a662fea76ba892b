// Package server wires the scorekeeper application together: it opens and
// prepares the store, builds the user service and runs the HTTP server until
// the process is signalled.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/scorekeeper/internal/logging"
	"github.com/dmitrijs2005/scorekeeper/internal/server/config"
	"github.com/dmitrijs2005/scorekeeper/internal/server/httpserver"
	"github.com/dmitrijs2005/scorekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/scorekeeper/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	store       repomanager.RepositoryManager
	userService *services.UserService
}

// openStore is a seam for tests.
var openStore = repomanager.Open

// NewApp opens the configured store and prepares it. Requests are only
// accepted once this has succeeded.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := logging.New(c.LogFormat, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	store, err := openStore(ctx, c, logger.With("module", "store"))
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := store.RunMigrations(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	us := services.NewUserService(store.Users(), c)

	return &App{config: c, logger: logger, store: store, userService: us}, nil
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

// Run serves HTTP until ctx is cancelled or a termination signal arrives,
// then closes the store.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "backend", app.config.StoreBackend)

	app.initSignalHandler(cancelFunc)

	defer func() {
		if err := app.store.Close(); err != nil {
			app.logger.Error(ctx, "closing store", "error", err)
		}
		if s, ok := app.logger.(interface{ Sync() error }); ok {
			_ = s.Sync()
		}
	}()

	s, err := httpserver.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.userService, app.store, httpserver.Options{
		CORSAllowedOrigin: app.config.CORSAllowedOrigin,
		ReadTimeout:       app.config.ReadTimeout,
		WriteTimeout:      app.config.WriteTimeout,
		ShutdownTimeout:   app.config.ShutdownTimeout,
	})
	if err != nil {
		return err
	}

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
