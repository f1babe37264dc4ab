// Package server wires the RunaVault server together: logger, record store,
// secret service and the gRPC endpoint, and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/runavault/internal/logging"
	"github.com/dmitrijs2005/runavault/internal/server/auth"
	"github.com/dmitrijs2005/runavault/internal/server/config"
	"github.com/dmitrijs2005/runavault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/runavault/internal/server/services"

	gs "github.com/dmitrijs2005/runavault/internal/server/grpc"
)

type App struct {
	config        *config.Config
	logger        logging.Logger
	repos         repomanager.RepositoryManager
	secretService *services.SecretService
	verifier      *auth.Verifier
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	rm, err := repomanager.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	return &App{
		config:        c,
		logger:        logger,
		repos:         rm,
		secretService: services.NewSecretService(rm.Secrets(), logger),
		verifier:      auth.NewVerifier([]byte(c.SecretKey)),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.secretService, app.verifier)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run prepares the store schema when configured to, then serves until a
// termination signal arrives or the server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	defer func() {
		if err := app.repos.Close(); err != nil {
			app.logger.Error(ctx, "store close error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting app...", "store", app.config.Store)

	if app.config.RunMigrations {
		if err := app.repos.RunMigrations(ctx); err != nil {
			return fmt.Errorf("migrations error: %w", err)
		}
		app.logger.Info(ctx, "Store schema is up to date")
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()
	return nil
}
