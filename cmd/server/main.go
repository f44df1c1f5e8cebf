package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/restaurant-bff/core/internal/app"
	"github.com/restaurant-bff/core/internal/config"
)

func main() {
	bootStartedAt := time.Now()

	cfg, err := config.LoadFromOS()
	if err != nil {
		fallbackLogger, _ := zap.NewProduction()
		fallbackLogger.Fatal("config validation failed", zap.Error(err))
	}

	logger, err := newLogger(cfg)
	if err != nil {
		logger, _ = zap.NewProduction()
		logger.Warn("falling back to zap production logger", zap.Error(err))
	}
	defer logger.Sync()
	defer func() {
		if p := recover(); p != nil {
			logger.Error("panic in main goroutine", zap.Any("panic", p))
			_ = logger.Sync()
			os.Exit(1)
		}
	}()

	// GoogleMapsClient and photos.Provider are external collaborators this
	// core never implements; a deployment that sets ENABLE_GOOGLE_SEARCH
	// wires a concrete client in before calling app.New.
	application, err := app.New(cfg, logger, nil, nil)
	if err != nil {
		logger.Fatal("initialize app", zap.Error(err))
	}

	ctx, cancelHub := context.WithCancel(context.Background())
	go application.RunHub(ctx)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: application.Engine,
	}

	serveErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
			return
		}
		serveErrCh <- nil
	}()

	logger.Info("server listening", zap.String("addr", srv.Addr), zap.Duration("boot", time.Since(bootStartedAt)))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErrCh:
		cancelHub()
		if err != nil {
			logger.Fatal("server exited with error", zap.Error(err))
		}
	case <-quit:
		logger.Info("shutting down server...")
		cancelHub()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Fatal("forced shutdown", zap.Error(err))
		}
		<-serveErrCh
		logger.Info("server exited")
	}
}

func newLogger(cfg *config.AppConfig) (*zap.Logger, error) {
	if cfg.IsProdLike() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
