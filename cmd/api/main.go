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

	"github.com/LizBugFree/network-monitor-demo/internal/api/handlers"
	"github.com/LizBugFree/network-monitor-demo/internal/api/middleware"
	"github.com/LizBugFree/network-monitor-demo/internal/api/router"
	"github.com/LizBugFree/network-monitor-demo/internal/config"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/logger"
	"github.com/LizBugFree/network-monitor-demo/internal/repository/docstore"
	"github.com/LizBugFree/network-monitor-demo/internal/services"
	"github.com/LizBugFree/network-monitor-demo/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})

	if err := run(cfg, log); err != nil {
		log.ErrorWithErr(err, "Server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(map[string]interface{}{
		"environment": cfg.Server.Environment,
		"db_driver":   cfg.Database.Driver,
		"project_id":  cfg.GCP.ProjectID,
	}).Info("Starting network monitor")
	if cfg.GCP.ProjectID == "" {
		log.Warn("No GCP project configured: collection triggers will answer 400")
	}

	store, err := docstore.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}
	defer store.Close()

	collection, err := services.NewCollection(ctx, cfg, store, services.NewGCPClientFactory(cfg.GCP), log)
	if err != nil {
		return err
	}
	defer collection.Close()

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	go limiter.Run(ctx, time.Minute)

	var scheduler *worker.CollectionScheduler
	if cfg.Scheduler.Enabled {
		scheduler, err = worker.NewCollectionScheduler(collection.Network, collection.Metrics, cfg.Scheduler, cfg.GCP.ProjectID, log)
		if err != nil {
			return err
		}
		go scheduler.Start(ctx)
	}

	h := &router.Handlers{
		Health:   handlers.NewHealthHandler(store, log),
		Collect:  handlers.NewCollectHandler(collection.Network, collection.Metrics, cfg.GCP.ProjectID, log),
		Snapshot: handlers.NewSnapshotHandler(collection.Reader, cfg.GCP.ProjectID, log),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, limiter, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.With("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)

	// The store and exporters close on return, after the last scheduled cycle
	if scheduler != nil {
		log.Info("Waiting for scheduled collections to finish")
		<-scheduler.Done()
	}

	if shutdownErr != nil {
		return fmt.Errorf("server shutdown failed: %w", shutdownErr)
	}
	log.Info("Server stopped")
	return nil
}
