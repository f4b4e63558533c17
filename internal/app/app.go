// Package app assembles and runs the shortener service: configuration,
// logging, storage, authentication, the click accounting worker and the
// HTTP server with graceful shutdown.
package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patric-chuzhbe/shortly/internal/auth"
	"github.com/patric-chuzhbe/shortly/internal/clickcounter"
	"github.com/patric-chuzhbe/shortly/internal/config"
	"github.com/patric-chuzhbe/shortly/internal/db/memorystorage"
	"github.com/patric-chuzhbe/shortly/internal/db/postgresdb"
	"github.com/patric-chuzhbe/shortly/internal/db/storage"
	"github.com/patric-chuzhbe/shortly/internal/ipchecker"
	"github.com/patric-chuzhbe/shortly/internal/logger"
	"github.com/patric-chuzhbe/shortly/internal/router"
	"github.com/patric-chuzhbe/shortly/internal/service"
)

// App holds everything needed to run the service and to shut it down
// cleanly.
type App struct {
	cfg              *config.Config
	db               storage.Storage
	clickCounter     *clickcounter.ClickCounter
	stopClickCounter context.CancelFunc
	httpHandler      http.Handler
}

// New initializes the application:
// - loads and validates the configuration
// - initializes the logger
// - selects the storage backend (PostgreSQL when a DSN is configured,
//   in-memory otherwise)
// - starts the background click accounting worker
// - wires the service and the HTTP router.
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = newStorage(app.cfg)
	if err != nil {
		return nil, err
	}

	signingSecretKey, err := base64.URLEncoding.DecodeString(app.cfg.AuthSecretKey)
	if err != nil {
		return nil, fmt.Errorf("in internal/app/New(): error while `base64.URLEncoding.DecodeString()` calling: %w", err)
	}

	authenticator := auth.New(app.cfg.AuthCookieName, signingSecretKey, app.cfg.AuthTokenTTL)

	app.clickCounter = clickcounter.New(
		app.db,
		app.cfg.ClickQueueCapacity,
		app.cfg.ClickFlushInterval,
	)
	clickCounterCtx, stopClickCounter := context.WithCancel(context.Background())
	app.stopClickCounter = stopClickCounter

	app.clickCounter.Run(clickCounterCtx)
	app.clickCounter.ListenErrors(logClickCounterError)

	svc := service.New(
		app.db,
		authenticator,
		app.clickCounter,
		app.cfg.ShortURLBase,
		app.cfg.ShortCodeLength,
	)

	ipChecker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	app.httpHandler = router.New(svc, authenticator, ipChecker)

	return app, nil
}

// Run starts the HTTP server and blocks until a termination signal or a
// server error. On shutdown the click counter gets a final flush and the
// storage is closed.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infow("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("received shutdown signal, flushing clicks and exiting")
		a.stopClickCounter()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources that outlive Run, such as the logger.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

// logClickCounterError surfaces click accounting failures (dropped
// clicks, failed flushes) at a level operators see with the default
// configuration.
func logClickCounterError(err error) {
	logger.Log.Warnln("click accounting error:", err)
}

func newStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.DatabaseDSN != "" {
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
			cfg.MigrationsDir,
		)
	}

	return memorystorage.New()
}
