// Package app initializes and runs the console service.
// It configures logging, the API client, the console registry and routing,
// and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patric-chuzhbe/shopconsole/internal/apiclient"
	"github.com/patric-chuzhbe/shopconsole/internal/config"
	"github.com/patric-chuzhbe/shopconsole/internal/consoles"
	"github.com/patric-chuzhbe/shopconsole/internal/ipchecker"
	"github.com/patric-chuzhbe/shopconsole/internal/logger"
	"github.com/patric-chuzhbe/shopconsole/internal/observability"
	"github.com/patric-chuzhbe/shopconsole/internal/router"
)

const shutdownTimeout = 10 * time.Second

// App encapsulates the configuration, the HTTP handler and the background
// console sweeper.
type App struct {
	cfg          *config.Config
	consoles     *consoles.Registry
	stopConsoles context.CancelFunc
	httpHandler  http.Handler
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - setting up the API client and metrics
// - starting the idle console sweeper
// - setting up the router and middleware
func New(optionsProto ...config.InitOption) (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New(optionsProto...)
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	checker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	metrics := observability.NewMetrics()

	app.consoles = consoles.New(app.cfg.ConsoleIdleTTL, app.cfg.ConsoleSweepInterval)
	consolesRunCtx, stopConsoles := context.WithCancel(context.Background())
	app.stopConsoles = stopConsoles
	app.consoles.Run(consolesRunCtx)

	app.httpHandler = router.New(
		app.cfg,
		apiclient.New(app.cfg.APIEndpoint, app.cfg.APITimeout, apiclient.WithObserver(metrics)),
		app.consoles,
		metrics,
		checker,
	)

	return app, nil
}

// Handler returns the console's HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpHandler
}

// Run starts the HTTP server with graceful shutdown support.
// It listens for system signals and cleans up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr, "APIEndpoint", a.cfg.APIEndpoint)

	server := &http.Server{
		Addr:              a.cfg.RunAddr,
		Handler:           a.httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Closing consoles and exiting...")
		a.stopConsoles()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return nil

	case err := <-serverErrCh:
		a.stopConsoles()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	a.stopConsoles()
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}
