// Package server wires configuration, storage, services and the HTTP API
// into a runnable application and handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/safepazz/internal/cryptox"
	"github.com/dmitrijs2005/safepazz/internal/logging"
	"github.com/dmitrijs2005/safepazz/internal/server/auth"
	"github.com/dmitrijs2005/safepazz/internal/server/config"
	"github.com/dmitrijs2005/safepazz/internal/server/httpapi"
	"github.com/dmitrijs2005/safepazz/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/safepazz/internal/server/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	repos   repomanager.RepositoryManager
	handler http.Handler
}

// newRepositoryManager picks Postgres when a DSN is configured and the
// in-memory store otherwise.
func newRepositoryManager(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == "" {
		return repomanager.NewMemoryRepositoryManager(), nil
	}
	m, err := repomanager.NewPostgresRepositoryManager(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := m.RunMigrations(ctx); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}
	return m, nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.DevMode)

	repos, err := newRepositoryManager(ctx, c)
	if err != nil {
		return nil, err
	}

	sealer, err := cryptox.NewSealer([]byte(c.EncryptionKey), []byte(c.EncryptionSalt))
	if err != nil {
		return nil, fmt.Errorf("sealer init error: %w", err)
	}
	issuer, err := auth.NewTokenIssuer([]byte(c.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("token issuer init error: %w", err)
	}
	hasher := cryptox.NewHasher(c.BcryptCost, c.HashConcurrency)

	directory := services.NewUserDirectory(repos.Users(), hasher, sealer, auth.NewTOTPVerifier(c.TOTPIssuer), logger)
	sessions := services.NewSessionRegistry(repos.Sessions(), issuer, c.SessionTTL, logger)
	as := services.NewAuthService(directory, sessions, c.MaxFailedAttempts, logger)
	rs := services.NewRecoveryService(repos, directory, c.RecoveryTTL, logger)
	ps := services.NewPasswordService(repos.Credentials(), sealer, c.ExpiringSoonWindow, logger)

	h := httpapi.NewHandler(as, rs, ps, logger, c.DevMode)
	limiter := httpapi.NewIPRateLimiter(c.LoginRateLimit, c.LoginRateBurst)

	return &App{
		config:  c,
		logger:  logger,
		repos:   repos,
		handler: httpapi.NewRouter(h, limiter, c.TrustProxyHeaders, logger),
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

func (app *App) newHTTPServer(ctx context.Context) *http.Server {
	return &http.Server{
		Handler:           app.handler,
		ReadHeaderTimeout: app.config.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
}

// serve runs the HTTP server on l until ctx is cancelled, then drains
// in-flight requests for up to ShutdownTimeout.
func (app *App) serve(ctx context.Context, l net.Listener) error {
	srv := app.newHTTPServer(ctx)

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "Starting HTTP server", "address", l.Addr().String())
		errCh <- srv.Serve(l)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	l, err := net.Listen("tcp", app.config.HTTPAddr)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	if err := app.serve(ctx, l); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until SIGINT, SIGTERM or SIGQUIT, or until ctx is cancelled.
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

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "failed to close storage", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
