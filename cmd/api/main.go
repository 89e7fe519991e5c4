package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/user/equipment-scraper/internal/app"
	"github.com/user/equipment-scraper/internal/delivery/http/handler"
	"github.com/user/equipment-scraper/internal/delivery/http/router"
	"github.com/user/equipment-scraper/pkg/config"
	"github.com/user/equipment-scraper/pkg/logger"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	// --- Logger ---
	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer zlog.Sync()

	datasets, err := config.LoadDatasets(cfg.DatasetsFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			zlog.Fatal("could not load datasets", zap.Error(err))
		}
		zlog.Warn("no datasets file, dataset runs are disabled", zap.String("path", cfg.DatasetsFile))
	}

	// --- Store, coordination and use cases ---
	ctx := context.Background()
	application, err := app.New(ctx, cfg, datasets, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(application.Maintenance, application.Persister, application.Runner, zlog)
	httpRouter := router.New(apiHandler, application.Metrics, application.Registry, zlog)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("could not start server", zap.Error(err))
		}
	}()
	zlog.Info("server started", zap.String("port", cfg.ServerPort), zap.Int("datasets", len(datasets)))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}

	zlog.Info("server exiting")
}
