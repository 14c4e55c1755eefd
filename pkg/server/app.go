package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"QuantLab/pkg/config"
	xhttp "QuantLab/pkg/http"
	applogger "QuantLab/pkg/logger"
)

// App encapsulates the API server lifecycle. Infrastructure clients are
// released by the cleanup function returned from dependency injection.
type App struct {
	cfg        *config.Config
	httpServer *xhttp.Server
	log        *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, srv *xhttp.Server, l *applogger.Logger) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{cfg: cfg, httpServer: srv, log: l}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the HTTP server and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("quantlab api started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Strings("sinks", a.cfg.Reports.Sinks))

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops the HTTP server.
func (a *App) shutdown() error {
	a.log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		return err
	}

	a.log.Info("shutdown complete")
	return nil
}
