package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/carolinavmo/PMR-atlas/internal/app"
	"github.com/carolinavmo/PMR-atlas/internal/config"
	"github.com/carolinavmo/PMR-atlas/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Format)
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = "pmr-atlas-dev-secret"
		logger.Warnf("JWT_SECRET not set: using the development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		logger.Fatalf("startup: %v", err)
	}
	if err := a.SeedAdmin(ctx); err != nil {
		logger.Warnf("%v", err)
	}

	go a.Reconciler.Run(ctx, cfg.History.ReconcileInterval)

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      a.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("PMR Atlas API listening on %s (mongo=%v redis=%v translation=%v)",
			srv.Addr, a.Mongo != nil, a.Redis != nil, a.Editor.TranslationConfigured())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Infof("shutting down")
	case err := <-errCh:
		logger.Errorf("server failed: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	if n, err := a.Reconciler.Drain(shutdownCtx); n > 0 || err != nil {
		logger.Infof("history: drained %d pending entries on shutdown (err=%v)", n, err)
	}
	if err := a.Close(shutdownCtx); err != nil {
		logger.Warnf("close backends: %v", err)
	}
}
