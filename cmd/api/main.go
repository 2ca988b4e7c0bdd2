package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plmware/forecast-api/internal/config"
	"github.com/plmware/forecast-api/internal/http/handler"
	"github.com/plmware/forecast-api/internal/http/middleware"
	"github.com/plmware/forecast-api/internal/http/router"
	"github.com/plmware/forecast-api/internal/jobs"
	"github.com/plmware/forecast-api/internal/logger"
	"github.com/plmware/forecast-api/internal/service"
	"github.com/plmware/forecast-api/internal/session"
	"github.com/plmware/forecast-api/internal/store"
	"github.com/plmware/forecast-api/internal/upstream"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.Int("port", cfg.App.Port),
		zap.String("upstream", cfg.Upstream.BaseURL),
	)

	// Upstream backend client
	upstreamClient, err := upstream.NewClient(&cfg.Upstream, log)
	if err != nil {
		return fmt.Errorf("failed to create upstream client: %w", err)
	}

	// Local settings store (freeze window)
	settingsStore, err := store.Open(&cfg.Settings, log)
	if err != nil {
		return fmt.Errorf("failed to open settings store: %w", err)
	}

	// Initialize services
	datasetService := service.NewDatasetService(upstreamClient, cfg.Jobs.DatasetTTLDuration(), log)
	ratesCache := service.NewRatesCache(upstreamClient, log)
	freezeService := service.NewFreezeService(settingsStore, log)
	authService := service.NewAuthService(upstreamClient, log)
	projectService := service.NewProjectService(upstreamClient, freezeService, datasetService, log)
	forecastService := service.NewForecastService(datasetService, upstreamClient, freezeService, log)
	exportService := service.NewExportService(datasetService, log)
	importService := service.NewImportService(upstreamClient, log)
	filtersService := service.NewFiltersService(datasetService, upstreamClient, log)
	dashboardService := service.NewDashboardService(datasetService, ratesCache, log)

	// Initialize middleware
	sessionMiddleware := session.NewMiddleware(log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, log)
	projectHandler := handler.NewProjectHandler(projectService, log)
	forecastHandler := handler.NewForecastHandler(forecastService, exportService, importService, cfg.Upload.MaxUploadSizeBytes(), log)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, ratesCache, log)
	filtersHandler := handler.NewFiltersHandler(filtersService, log)
	settingsHandler := handler.NewSettingsHandler(freezeService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		upstreamClient,
		sessionMiddleware,
		rateLimiter,
		authHandler,
		projectHandler,
		forecastHandler,
		dashboardHandler,
		filtersHandler,
		settingsHandler,
	)

	// Initialize and start scheduler for background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)

		ratesJob := jobs.NewRatesRefreshJob(ratesCache, log)
		if err := scheduler.AddJob(jobs.RatesRefreshJobName, cfg.Jobs.RatesRefreshSchedule, ratesJob.Run); err != nil {
			log.Error("Failed to register rates refresh job", zap.Error(err))
		}

		sweepJob := jobs.NewDatasetSweepJob(datasetService, log)
		if err := scheduler.AddJob(jobs.DatasetSweepJobName, cfg.Jobs.DatasetSweepSchedule, sweepJob.Run); err != nil {
			log.Error("Failed to register dataset sweep job", zap.Error(err))
		}

		scheduler.Start()
		log.Info("Scheduler started",
			zap.String("rates_refresh_schedule", cfg.Jobs.RatesRefreshSchedule),
			zap.String("dataset_sweep_schedule", cfg.Jobs.DatasetSweepSchedule),
		)
	} else {
		log.Info("Background jobs disabled", zap.Bool("enabled", cfg.Jobs.Enabled))
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if err := settingsStore.Close(); err != nil {
			log.Warn("Error closing settings store", zap.Error(err))
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
