package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/user/bookmark-service/internal/adapter/bookmarkfile"
	"github.com/user/bookmark-service/internal/bootstrap"
	"github.com/user/bookmark-service/internal/delivery/http/handler"
	"github.com/user/bookmark-service/internal/delivery/http/router"
	"github.com/user/bookmark-service/internal/repository"
	"github.com/user/bookmark-service/internal/usecase"
	"github.com/user/bookmark-service/pkg/config"
	"github.com/user/bookmark-service/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// --- Logger ---
	log, err := logger.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log.Info("Logger initialized", zap.String("level", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	stores, err := bootstrap.NewStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	// --- Fetcher ---
	fetcher, releaseFetcher, err := bootstrap.NewFetcher(cfg, log)
	if err != nil {
		return fmt.Errorf("create %s fetcher: %w", cfg.FetchMode, err)
	}
	defer releaseFetcher()

	// --- Use Cases ---
	var provider repository.BookmarkTreeProvider
	if cfg.BookmarksFile != "" {
		provider = bookmarkfile.NewProvider(cfg.BookmarksFile)
	}
	analyzer := usecase.NewAnalyzer(fetcher, cfg.MaxConcurrency, log)
	runs := usecase.NewRunManager(provider, stores.SeenSets, stores.Runs, analyzer, log)
	listener := usecase.NewTriggerListener(stores.Queue, runs, time.Second, log)

	listenerDone := make(chan struct{})
	go func() {
		defer close(listenerDone)
		listener.Listen(ctx)
	}()

	if cfg.AnalyzeOnStart {
		go func() {
			if _, err := runs.OnInstalled(ctx); err != nil {
				log.Error("Initial bookmark analysis failed", zap.Error(err))
			}
		}()
	}

	// --- HTTP Server ---
	var checks []handler.HealthCheck
	if stores.Postgres != nil {
		checks = append(checks, handler.HealthCheck{Name: "postgres", Ping: stores.Postgres.Ping})
	}
	if stores.Redis != nil {
		checks = append(checks, handler.HealthCheck{Name: "redis", Ping: func(ctx context.Context) error {
			return stores.Redis.Ping(ctx).Err()
		}})
	}
	apiHandler := handler.NewHandler(runs, stores.Queue, checks, log)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router.New(apiHandler, log, 5*time.Minute),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("port", cfg.ServerPort), zap.String("fetch_mode", cfg.FetchMode))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		stop()
		<-listenerDone
		return fmt.Errorf("could not listen on port %s: %w", cfg.ServerPort, err)
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	<-listenerDone
	return nil
}
