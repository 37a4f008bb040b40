package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ForecastAPI/internal/usecase"
	"ForecastAPI/pkg/config"
	xhttp "ForecastAPI/pkg/http"
	applogger "ForecastAPI/pkg/logger"
)

// App encapsulates the application lifecycle.
type App struct {
	cfg        *config.Config
	httpServer *xhttp.Server
	refresher  *usecase.Refresher
	l          *applogger.Logger
}

// New creates a new App. refresher may be nil.
func New(cfg *config.Config, srv *xhttp.Server, refresher *usecase.Refresher, l *applogger.Logger) *App {
	if l == nil {
		l = applogger.NewNop()
	}
	return &App{cfg: cfg, httpServer: srv, refresher: refresher, l: l}
}

// Run starts the application and blocks until ctx is cancelled or a termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.refresher != nil {
		a.refresher.Start()
		go a.refresher.RunNow()
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("forecast api started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("ticker", a.cfg.Forecast.Ticker),
		applogger.String("backend", a.cfg.Model.Backend),
	)

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.refresher != nil {
		a.refresher.Stop(ctx)
	}

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		return err
	}

	a.l.Info("shutdown complete")
	return nil
}
